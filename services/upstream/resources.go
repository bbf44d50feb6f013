package upstream

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core/auth"
)

// Resources is the generic client for the out-of-scope CRUD collaborators
// (fees, library, hostel, placements, notifications, ...). Payloads travel
// through the portal opaquely inside the collaborator's double envelope;
// the portal never validates or shapes them.
type Resources struct {
	client *Client
}

func (c *Client) Resources() *Resources { return &Resources{client: c} }

// envelope is the collaborator's {data:{data:...}} response wrapper.
type envelope struct {
	Data struct {
		Data json.RawMessage `json:"data"`
	} `json:"data"`
}

// Records is an opaque list of collaborator objects, rendered as-is.
type Records []map[string]interface{}

// GetAll fetches /api/<resource>.
func (r *Resources) GetAll(ctx context.Context, token, resource string) (Records, error) {
	return r.list(ctx, token, "/api/"+resource)
}

// GetMine fetches /api/<resource>/my, the caller-scoped variant.
func (r *Resources) GetMine(ctx context.Context, token, resource string) (Records, error) {
	return r.list(ctx, token, "/api/"+resource+"/my")
}

// Create posts an opaque form payload to /api/<resource>.
func (r *Resources) Create(ctx context.Context, token, resource string, payload map[string]interface{}) error {
	return r.client.do(ctx, http.MethodPost, "/api/"+resource, token, payload, nil, tokenErrors)
}

// Delete removes /api/<resource>/<id>.
func (r *Resources) Delete(ctx context.Context, token, resource, id string) error {
	return r.client.do(ctx, http.MethodDelete, "/api/"+resource+"/"+id, token, nil, nil, tokenErrors)
}

func (r *Resources) list(ctx context.Context, token, path string) (Records, error) {
	var env envelope
	if err := r.client.do(ctx, http.MethodGet, path, token, nil, &env, tokenErrors); err != nil {
		return nil, err
	}
	if len(env.Data.Data) == 0 {
		return Records{}, nil
	}
	var records Records
	if err := json.Unmarshal(env.Data.Data, &records); err != nil {
		return nil, errors.Wrap(auth.ErrServer, err.Error())
	}
	return records, nil
}
