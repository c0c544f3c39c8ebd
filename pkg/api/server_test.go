package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acisops/cmdhist/pkg/continuity"
	"github.com/acisops/cmdhist/pkg/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func writeFixtureTree(t *testing.T) (reviewDir, nletPath string) {
	t.Helper()
	root := t.TempDir()

	augDir := filepath.Join(root, "AUG2718", "ofls")
	require.NoError(t, os.MkdirAll(augDir, 0o755))
	writeFile(t, filepath.Join(augDir, "CR237_0100.backstop"),
		"2018:237:00:00:00.000 | 1000000 0 | ACISPKT | TLMSID= XTZ0000005, CMDS= 4, WORDS= 4, SCS= 131, STEP= 5\n"+
			"2018:241:06:00:00.000 | 1001000 0 | ACISPKT | TLMSID= AA00000000, CMDS= 3, WORDS= 3, SCS= 131, STEP= 9\n")

	sepDir := filepath.Join(root, "SEP0318A", "ofls")
	require.NoError(t, os.MkdirAll(sepDir, 0o755))
	writeFile(t, filepath.Join(sepDir, "CR246_0200.backstop"),
		"2018:246:00:00:00.000 | 2000000 0 | ACISPKT | TLMSID= WSVIDALLDN, CMDS= 4, WORDS= 5, SCS= 132, STEP= 2\n"+
			"2018:247:00:00:00.000 | 2000500 0 | ACISPKT | TLMSID= XTZ0000005, CMDS= 4, WORDS= 4, SCS= 132, STEP= 8\n")
	writeFile(t, filepath.Join(sepDir, continuity.FileName), augDir+"\nSTOP 2018:240:23:24:00\n")

	nletPath = filepath.Join(root, "NonLoadTrackedEvents.txt")
	writeFile(t, nletPath, "GO\n2018:240:23:24:00.000 S107\n")
	return sepDir, nletPath
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	reviewDir, nletPath := writeFixtureTree(t)
	svc := services.NewAssemblyService(nletPath, nil)
	return NewServer(svc, nil).Router(), reviewDir
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthWithoutArchive(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestAssembleEndpoint(t *testing.T) {
	router, reviewDir := newTestRouter(t)
	outPath := filepath.Join(t.TempDir(), "history.backstop")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/assemble", AssembleRequest{
		LoadDir:    reviewDir,
		OutputPath: outPath,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AssembleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CR246_0200.backstop", resp.ReviewLoad)
	assert.Equal(t, "full-stop", resp.Scenario)
	// 1 kept predecessor + 4 safing + 2 continuation.
	assert.Equal(t, 7, resp.CommandCount)
	require.Len(t, resp.Chain, 1)
	assert.Equal(t, "STOP", resp.Chain[0].LoadType)
	assert.NotEmpty(t, resp.RunID)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "SIMTRANS")
}

func TestAssembleEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/assemble", map[string]any{"max_links": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assemble", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestAssembleEndpointMissingLoad(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/assemble", AssembleRequest{
		LoadDir: filepath.Join(os.TempDir(), "no-such-load-dir"),
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChainEndpointWithoutArchive(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/chains/SEP0318A", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
