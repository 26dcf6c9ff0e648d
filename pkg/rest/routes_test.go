package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRegisterGroupsRoutes(t *testing.T) {
	router := gin.New()
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }

	var hits int
	err := Register(router,
		[]Route{
			NewRoute(GET, "proofs", "events", ok),
			NewRoute(POST, "proofs", "verify", ok),
			NewRoute(DELETE, "circuits", ":id", ok),
		},
		[]Middleware{NewMiddleware("proofs", func(c *gin.Context) { hits++; c.Next() })},
	)
	require.NoError(t, err)

	for _, tc := range []struct {
		method, path string
		code         int
	}{
		{http.MethodGet, "/proofs/events", http.StatusOK},
		{http.MethodPost, "/proofs/verify", http.StatusOK},
		{http.MethodDelete, "/circuits/ProofOfAge", http.StatusOK},
		{http.MethodGet, "/proofs/verify", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.code, w.Code, "%s %s", tc.method, tc.path)
	}

	// middleware only sees the /proofs group; unmatched routes do not run group handlers
	assert.Equal(t, 2, hits)
}

func TestRegisterRejectsUnknownMethod(t *testing.T) {
	err := Register(gin.New(), []Route{NewRoute(HttpMethod(42), "x", "y", nil)}, nil)
	assert.ErrorContains(t, err, "HttpMethod(42)")
}
