package sandbox

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

const failedKey = "sandbox.failed"

// requestID echoes the caller's X-Request-Id, or issues one.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(api.RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(api.RequestIDHeader, id)
		c.Next()
		s.log.Debug("sandbox request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"failed", c.GetBool(failedKey))
	}
}

// requireSession enforces the Realms admin session rules: the session cookie
// must match and the Realms-User header must name the logged-in user.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(api.DefaultCookieName)
		if err != nil || cookie != s.session {
			fail(c, "未登录")
			c.Abort()
			return
		}
		uid, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader(api.UserHeader)), 10, 64)
		if err != nil || uid != s.userID {
			fail(c, "无权进行此操作，Realms-User 无效")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Fault makes matching requests fail before they reach a handler. Status 200
// produces a success=false envelope; any other status produces a bare error
// page with that code.
type Fault struct {
	Method  string
	Path    string
	Status  int
	Message string
	// Times limits how many requests fail; 0 means until cleared.
	Times int
}

// InjectFault registers f. Path matches the request path exactly.
func (s *Server) InjectFault(f Fault) {
	if f.Status == 0 {
		f.Status = http.StatusOK
	}
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	s.faults = append(s.faults, &f)
}

// ClearFaults removes every injected fault.
func (s *Server) ClearFaults() {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	s.faults = nil
}

func (s *Server) takeFault(method, path string) *Fault {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	for i, f := range s.faults {
		if !strings.EqualFold(f.Method, method) || f.Path != path {
			continue
		}
		hit := *f
		if f.Times > 0 {
			f.Times--
			if f.Times == 0 {
				s.faults = append(s.faults[:i], s.faults[i+1:]...)
			}
		}
		return &hit
	}
	return nil
}

func (s *Server) injectFaults() gin.HandlerFunc {
	return func(c *gin.Context) {
		f := s.takeFault(c.Request.Method, c.Request.URL.Path)
		if f == nil {
			c.Next()
			return
		}
		if f.Status == http.StatusOK {
			fail(c, f.Message)
		} else {
			c.Set(failedKey, true)
			c.String(f.Status, f.Message)
		}
		c.Abort()
	}
}
