package campusdapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_resourceAPI(t *testing.T) {
	app, svc := newTestServer()
	student := createUser(t, svc, "Awa Ndiaye", "awa@test.test", "", "LeSecret!10", true)
	admin := createUser(t, svc, "Moussa Diop", "moussa@test.test", "admin", "LeSecret!10", true)
	studentToken, adminToken := getToken(t, student), getToken(t, admin)

	decodeEnvelope := func(t *testing.T, body []byte) []record {
		t.Helper()
		var env dataEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			t.Fatalf("decoding envelope: %v", err)
		}
		return env.Data.Data
	}

	tests := []httpTest{
		{name: "auth required", path: "/api/fees", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "unknown resource", path: "/api/grades", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errorResponse{Message: "not found"}),
		},
		{
			name: "admin required to create", method: http.MethodPost, path: "/api/notices", token: studentToken,
			body:     []byte(`{"title":"Party!"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errorResponse{Message: "permission denied"}),
		},
		{
			name: "admin required to delete", method: http.MethodDelete, path: "/api/notices/whatever", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errorResponse{Message: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("list wraps records in the double envelope", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/fees", studentToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		records := decodeEnvelope(t, rec.Body.Bytes())
		if assert.Len(t, records, 2) {
			assert.NotEmpty(t, records[0]["id"])
			assert.NotEmpty(t, records[0]["semester"])
		}
	})

	t.Run("create, scope and delete", func(t *testing.T) {
		// an owned record only shows up in its owner's /my listing
		body := marshallObj(t, record{"subject": "Fee due soon", "read": false, "user_id": student.ID})
		req, rec := newAuthRequest(http.MethodPost, "/api/notifications", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var created record
		_ = json.Unmarshal(rec.Body.Bytes(), &created)
		id, _ := created["id"].(string)
		assert.NotEmpty(t, id)

		req, rec = newAuthRequest(http.MethodGet, "/api/notifications/my", studentToken)
		app.ServeHTTP(rec, req)
		mine := decodeEnvelope(t, rec.Body.Bytes())
		assert.Len(t, mine, 2, "the seeded unscoped record plus the owned one")

		req, rec = newAuthRequest(http.MethodGet, "/api/notifications/my", adminToken)
		app.ServeHTTP(rec, req)
		assert.Len(t, decodeEnvelope(t, rec.Body.Bytes()), 1, "another caller does not see it")

		req, rec = newAuthRequest(http.MethodDelete, "/api/notifications/"+id, adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodDelete, "/api/notifications/"+id, adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, "deleting twice misses")

		req, rec = newAuthRequest(http.MethodGet, "/api/notifications/my", studentToken)
		app.ServeHTTP(rec, req)
		assert.Len(t, decodeEnvelope(t, rec.Body.Bytes()), 1)
	})
}
