// E2E test helpers: fixtures, request helpers and session construction.
package e2e_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/bref-insight/internal/application/assistant"
	"github.com/turtacn/bref-insight/internal/application/dashboard"
	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
)

// fixtureFiles is the dataset served in embedded mode.
var fixtureFiles = map[string]string{
	"summary.json":             `{"pollutants":["NOx","Mercury"],"totalPatents":5,"creation_date":"2024-05-01"}`,
	"pollutant_filenames.json": `{"NOx":"nox","Mercury":"mercury"}`,
	"bref_hierarchy_optimized.json": `{"hierarchy":[
		{"id":"CWW","name":"Common Waste Water","children":[{"id":"CWW_1","name":"Scrubbing"},{"id":"CWW_2","name":"Filters"}]},
		{"id":"LCP","name":"Large Combustion","children":[{"id":"LCP_1","name":"Boilers"}]}
	]}`,
	"pollutant_bref_hierarchies/nox_bref_hierarchy.json": `{"hierarchy":[
		{"id":"CWW","name":"Common Waste Water","hasChildrenWithMatchForPollutant":true,"children":[
			{"id":"CWW_1","name":"Scrubbing","hasMatchForPollutant":true},
			{"id":"CWW_2","name":"Filters"}]},
		{"id":"LCP","name":"Large Combustion","children":[{"id":"LCP_1","name":"Boilers"}]}
	]}`,
	"patent_index.json":                      `{"P2":{"title":"Catalyst","year":2020,"abstract":"SCR"}}`,
	"pollutants/nox_top.json":                `[{"id":"P1","title":"Scrubber","score":0.9},{"id":"P4","title":"Old","score":0.5},{"id":"P5","title":"Unscored"}]`,
	"pollutants/nox_scores.json":             `{"P5":0.8}`,
	"bref_relevance/nox_bref_relevance.json": `{"P1":{"CWW_1":0.9,"CWW_2":0.95},"P2":{"CWW_1":0.7},"P3":{"CWW_1":0.5}}`,
	"sdgs/nox_sdg_data.json":                 `{"3":{"name":"Good Health","score":0.7}}`,
	"bref_sections.csv":                      "code,text\nCWW_1,Wet scrubbing removes NOx\n",
}

// doGet sends a GET request to the specified path.
func doGet(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, env.baseURL+path, nil)
	require.NoError(t, err)
	req.Header.Set("X-E2E-Test", "true")

	resp, err := env.httpClient.Do(req)
	require.NoError(t, err)
	t.Logf("GET %s -> %d", path, resp.StatusCode)
	return resp
}

// readBody drains and closes resp.Body.
func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func decodeJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v), string(data))
}

// newRemoteSession builds a dashboard session that reads fixtures and sends
// chat turns through the server under test.
func newRemoteSession(t *testing.T) *dashboard.Session {
	t.Helper()
	logger := logging.NewNopLogger()
	store, err := docstore.NewStore(env.sdkClient.Fixtures(), logger)
	require.NoError(t, err)

	a := assistant.New(env.sdkClient.Chat(), assistant.Options{Model: env.cfg.LLM.Model}, logger)
	s, err := dashboard.NewSession(store, dashboard.Config{}, logger, dashboard.WithAssistant(a))
	require.NoError(t, err)
	return s
}

//Personal.AI order the ending
