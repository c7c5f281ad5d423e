package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/apikey-dashboard/internal/handler/middleware"
	"github.com/makkenzo/apikey-dashboard/web"
	"go.uber.org/zap"
)

const (
	dashboardPath = "/dashboard"
	loginPath     = "/login"
)

// PagesHandler serves the dashboard pages. It expects LoadSession to run
// first so it can redirect by session state.
type PagesHandler struct {
	pages  map[string][]byte
	logger *zap.Logger
}

func NewPagesHandler(logger *zap.Logger) (*PagesHandler, error) {
	pages := make(map[string][]byte)
	for _, name := range []string{"dashboard.html", "login.html", "signup.html"} {
		b, err := web.Page(name)
		if err != nil {
			return nil, fmt.Errorf("load page %s: %w", name, err)
		}
		pages[name] = b
	}
	return &PagesHandler{
		pages:  pages,
		logger: logger.Named("PagesHandler"),
	}, nil
}

func (h *PagesHandler) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, dashboardPath)
}

func (h *PagesHandler) Dashboard(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		c.Redirect(http.StatusFound, loginPath)
		return
	}
	h.render(c, "dashboard.html")
}

func (h *PagesHandler) Login(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); ok {
		c.Redirect(http.StatusFound, dashboardPath)
		return
	}
	h.render(c, "login.html")
}

func (h *PagesHandler) Signup(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); ok {
		c.Redirect(http.StatusFound, dashboardPath)
		return
	}
	h.render(c, "signup.html")
}

func (h *PagesHandler) render(c *gin.Context, name string) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.pages[name])
}
