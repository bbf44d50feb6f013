package campusdapi

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// resourceAPI serves the campus CRUD collaborators (fees, library,
// notifications, notices) from seeded in-memory tables. Every response is
// wrapped in the double {data:{data:...}} envelope the portal expects.
type resourceAPI struct {
	mutex  sync.RWMutex
	tables map[string][]record
}

type record map[string]interface{}

type dataEnvelope struct {
	Data struct {
		Data []record `json:"data"`
	} `json:"data"`
}

func envelope(records []record) dataEnvelope {
	var env dataEnvelope
	if records == nil {
		records = []record{}
	}
	env.Data.Data = records
	return env
}

func registerResourceAPI(g *echo.Group) {
	api := &resourceAPI{tables: seedTables()}

	rg := g.Group("/:resource", jwtMiddleware(), api.knownResource)
	rg.GET("", api.list)
	rg.GET("/my", api.listMine)
	rg.POST("", api.create, adminMiddleware())
	rg.DELETE("/:id", api.destroy, adminMiddleware())
}

func seedTables() map[string][]record {
	return map[string][]record{
		"fees": {
			{"id": uuid.NewString(), "semester": "Fall 2026", "amount": 1250.00, "status": "due"},
			{"id": uuid.NewString(), "semester": "Spring 2026", "amount": 1250.00, "status": "paid"},
		},
		"library": {
			{"id": uuid.NewString(), "title": "The Go Programming Language", "due_date": "2026-09-15"},
			{"id": uuid.NewString(), "title": "Designing Data-Intensive Applications", "due_date": "2026-09-30"},
		},
		"notifications": {
			{"id": uuid.NewString(), "subject": "Course registration opens Monday", "read": false},
		},
		"notices": {
			{"id": uuid.NewString(), "title": "Campus closed on Labor Day", "audience": "all"},
		},
	}
}

// knownResource rejects paths outside the seeded tables.
func (api *resourceAPI) knownResource(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		api.mutex.RLock()
		_, ok := api.tables[ctx.Param("resource")]
		api.mutex.RUnlock()
		if !ok {
			return errHTTPNotFound
		}
		return next(ctx)
	}
}

func (api *resourceAPI) list(ctx echo.Context) error {
	api.mutex.RLock()
	records := append([]record(nil), api.tables[ctx.Param("resource")]...)
	api.mutex.RUnlock()
	return ctx.JSON(http.StatusOK, envelope(records))
}

// listMine scopes records to the caller where records carry a user_id;
// unscoped tables are returned whole.
func (api *resourceAPI) listMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	api.mutex.RLock()
	defer api.mutex.RUnlock()

	records := make([]record, 0)
	for _, rec := range api.tables[ctx.Param("resource")] {
		if owner, ok := rec["user_id"].(string); ok && owner != claims.Subject {
			continue
		}
		records = append(records, rec)
	}
	return ctx.JSON(http.StatusOK, envelope(records))
}

func (api *resourceAPI) create(ctx echo.Context) error {
	var rec record
	if err := ctx.Bind(&rec); err != nil {
		return errors.Wrap(err, "binding resource payload")
	}
	rec["id"] = uuid.NewString()

	name := ctx.Param("resource")
	api.mutex.Lock()
	api.tables[name] = append(api.tables[name], rec)
	api.mutex.Unlock()

	return ctx.JSON(http.StatusCreated, rec)
}

func (api *resourceAPI) destroy(ctx echo.Context) error {
	name, id := ctx.Param("resource"), ctx.Param("id")

	api.mutex.Lock()
	defer api.mutex.Unlock()

	records := api.tables[name]
	for i, rec := range records {
		if rec["id"] == id {
			api.tables[name] = append(records[:i], records[i+1:]...)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return errHTTPNotFound
}
