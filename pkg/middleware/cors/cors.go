package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Options configures the CORS policy.
type Options struct {
	// AllowedOrigins lists exact origins. "*" admits any origin; an empty list admits none.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// ExposedHeaders are readable by browser scripts, e.g. Content-Disposition on exports.
	ExposedHeaders []string
	MaxAge         int
}

// DefaultOptions is the policy of the API for the given origins.
func DefaultOptions(origins []string) Options {
	return Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         600,
	}
}

type policy struct {
	anyOrigin bool
	origins   map[string]struct{}
	methods   string
	headers   string
	exposed   string
	maxAge    string
}

func newPolicy(opts Options) policy {
	p := policy{
		origins: make(map[string]struct{}, len(opts.AllowedOrigins)),
		methods: strings.Join(opts.AllowedMethods, ", "),
		headers: strings.Join(opts.AllowedHeaders, ", "),
		exposed: strings.Join(opts.ExposedHeaders, ", "),
		maxAge:  strconv.Itoa(opts.MaxAge),
	}
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[normalize(o)] = struct{}{}
	}
	return p
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(origin, "/"))
}

func (p policy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[normalize(origin)]
	return ok
}

// New returns the CORS middleware. Requests without an Origin header pass untouched; disallowed
// origins are refused with 403. The matched origin is echoed so the session cookie can travel.
func New(opts Options) gin.HandlerFunc {
	p := newPolicy(opts)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		if !p.allows(origin) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		if p.exposed != "" {
			h.Set("Access-Control-Expose-Headers", p.exposed)
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			h.Set("Access-Control-Max-Age", p.maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
