package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/quillworks/quill/internal/artifact"
	"github.com/quillworks/quill/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(ServerConfig{Logger: log.NewNop()})
	assert.Error(t, err)

	_, err = NewServer(ServerConfig{
		Logger:    log.NewNop(),
		Artifacts: &fakeArtifacts{},
	})
	assert.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &fakeArtifacts{byID: map[uuid.UUID]*artifact.Artifact{}})

	w := doRequest(s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	// Readiness without a pool still answers ready.
	w = doRequest(s, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeArtifacts{byID: map[uuid.UUID]*artifact.Artifact{}})

	w := doRequest(s, http.MethodPut, "/api/v1/artifacts/"+uuid.NewString(), "alice", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
