// admin.go - privacy-conscious admin pages and visitor tracking
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnatngaw/portfolio/internal/analytics"
	"github.com/arnatngaw/portfolio/internal/config"
)

const adminCookie = "admin_token"

type admin struct {
	cfg   *config.Config
	store *analytics.Store
	log   *slog.Logger

	token    string
	salt     string // for IP hashing
	username string
	password string
}

func newAdmin(cfg *config.Config, store *analytics.Store, log *slog.Logger) *admin {
	a := &admin{
		cfg:      cfg,
		store:    store,
		log:      log,
		token:    generateToken(),
		salt:     generateToken(),
		username: cfg.Admin.Username,
		password: cfg.Admin.Password,
	}

	// Default credentials for development only.
	if a.username == "" {
		a.username = "admin"
		log.Warn("using default admin username, set ADMIN_USERNAME")
	}
	if a.password == "" {
		if gin.Mode() == gin.ReleaseMode {
			log.Warn("ADMIN_PASSWORD not set, admin login disabled")
		} else {
			a.password = "admin123"
			log.Warn("using default admin password, set ADMIN_PASSWORD")
		}
	}

	if gin.Mode() == gin.DebugMode {
		log.Debug("admin token (dev only)", "token", a.token)
	}
	return a
}

func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("admin: failed to generate token: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// hashIP is consistent per IP for the lifetime of the process.
func (a *admin) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + a.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func (a *admin) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *admin) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only full page loads count as visits.
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || path != "/" {
			c.Next()
			return
		}

		// Respect Do Not Track
		if c.GetHeader("DNT") == "1" || a.store == nil {
			c.Next()
			return
		}

		hashed, ua := a.hashIP(c.ClientIP()), c.GetHeader("User-Agent")
		go func() {
			if err := a.store.RecordVisit(context.Background(), hashed, ua, path); err != nil {
				a.log.Error("recording visitor", "error", err)
			}
		}()
		c.Next()
	}
}

// cleanup drops visitor rows past the retention window.
func (a *admin) cleanup(ctx context.Context) {
	n, err := a.store.Cleanup(ctx, a.cfg.VisitorRetention)
	if err != nil {
		a.log.Error("cleaning up old visitor data", "error", err)
		return
	}
	if n > 0 {
		a.log.Info("privacy cleanup", "removed", n)
	}
}

func (a *admin) setupRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":     "Privacy Policy",
			"retention": a.cfg.VisitorRetention.String(),
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		if a.password != "" &&
			subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1 &&
			subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1 {
			c.SetCookie(adminCookie, a.token, 3600*24, "/admin", "", false, true)
			a.log.Info("admin login", "from", a.hashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}

		a.log.Warn("failed admin login", "from", a.hashIP(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	group := r.Group("/admin")
	group.Use(a.authMiddleware())

	group.GET("/dashboard", func(c *gin.Context) {
		stats, err := a.store.Stats(c.Request.Context())
		if err != nil {
			a.log.Error("loading admin stats", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	group.GET("/api/stats", func(c *gin.Context) {
		stats, err := a.store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	group.GET("/visitors", func(c *gin.Context) {
		visitors, err := a.store.Visitors(c.Request.Context(), 200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": visitors,
		})
	})

	group.GET("/sections", func(c *gin.Context) {
		sections, err := a.store.Sections(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sections)
	})

	group.POST("/privacy/cleanup", func(c *gin.Context) {
		go a.cleanup(context.Background())
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup initiated"})
	})

	group.GET("/export/stats", func(c *gin.Context) {
		stats, err := a.store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		a.log.Info("admin stats exported", "by", a.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}

