package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hongminglow/loft-be/internal/auth"
	"github.com/hongminglow/loft-be/internal/http/respond"
	"github.com/hongminglow/loft-be/internal/middleware"
	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/models/dto"
	"github.com/hongminglow/loft-be/internal/storage"
)

// resource is the JSON CRUD surface shared by the property management records.
type resource[T, In any] struct {
	name   string
	list   func(context.Context) ([]T, error)
	get    func(context.Context, uuid.UUID) (T, error)
	create func(context.Context, T) (T, error)
	update func(context.Context, T) (T, error)
	remove func(context.Context, uuid.UUID) error
	// build validates the input; id is uuid.Nil on create.
	build func(ctx context.Context, in In, id uuid.UUID) (T, error)

	writers  []models.Role
	deleters []models.Role
}

func (res resource[T, In]) routes(r chi.Router, path string) {
	r.Route(path, func(r chi.Router) {
		r.Use(middleware.RequireRole())
		r.Get("/", res.handleList)
		r.Get("/{id}", res.handleGet)
		r.With(middleware.RequireRole(res.writers...)).Post("/", res.handleCreate)
		r.With(middleware.RequireRole(res.writers...)).Put("/{id}", res.handleUpdate)
		r.With(middleware.RequireRole(res.deleters...)).Delete("/{id}", res.handleDelete)
	})
}

func (res resource[T, In]) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := res.list(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	respond.JSON(w, http.StatusOK, res.name+" list", items)
}

func (res resource[T, In]) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := res.get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res.name, item)
}

func (res resource[T, In]) handleCreate(w http.ResponseWriter, r *http.Request) {
	res.save(w, r, uuid.Nil)
}

func (res resource[T, In]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res.save(w, r, id)
}

func (res resource[T, In]) save(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var in In
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := res.build(r.Context(), in, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	status, message := http.StatusCreated, res.name+" created"
	if id == uuid.Nil {
		item, err = res.create(r.Context(), item)
	} else {
		status, message = http.StatusOK, res.name+" updated"
		item, err = res.update(r.Context(), item)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, status, message, item)
}

func (res resource[T, In]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := res.remove(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res.name+" deleted", dto.IDResponse{ID: id})
}

// CatalogHandler serves categories, zone areas, owners, lofts, teams and tasks.
type CatalogHandler struct {
	store storage.Catalog
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(store storage.Catalog) *CatalogHandler {
	return &CatalogHandler{store: store}
}

var (
	adminOnly      = []models.Role{models.RoleAdmin}
	adminOrManager = []models.Role{models.RoleAdmin, models.RoleManager}
)

// Routes attaches every catalog resource.
func (h *CatalogHandler) Routes(r chi.Router) {
	s := h.store

	resource[models.Category, models.CategoryInput]{
		name: "category", list: s.ListCategories, get: s.GetCategory,
		create: s.CreateCategory, update: s.UpdateCategory, remove: s.DeleteCategory,
		build: func(_ context.Context, in models.CategoryInput, id uuid.UUID) (models.Category, error) {
			c, err := in.Category()
			c.ID = id
			return c, err
		},
		writers: adminOnly, deleters: adminOnly,
	}.routes(r, "/api/categories")

	resource[models.ZoneArea, models.ZoneAreaInput]{
		name: "zone area", list: s.ListZoneAreas, get: s.GetZoneArea,
		create: s.CreateZoneArea, update: s.UpdateZoneArea, remove: s.DeleteZoneArea,
		build: func(_ context.Context, in models.ZoneAreaInput, id uuid.UUID) (models.ZoneArea, error) {
			z, err := in.ZoneArea()
			z.ID = id
			return z, err
		},
		writers: adminOnly, deleters: adminOnly,
	}.routes(r, "/api/zone-areas")

	resource[models.Owner, models.OwnerInput]{
		name: "owner", list: s.ListOwners, get: s.GetOwner,
		create: s.CreateOwner, update: s.UpdateOwner, remove: s.DeleteOwner,
		build: func(_ context.Context, in models.OwnerInput, id uuid.UUID) (models.Owner, error) {
			o, err := in.Owner()
			o.ID = id
			return o, err
		},
		writers: adminOnly, deleters: adminOnly,
	}.routes(r, "/api/owners")

	resource[models.Loft, models.LoftInput]{
		name: "loft", list: s.ListLofts, get: s.GetLoft,
		create: s.CreateLoft, update: s.UpdateLoft, remove: s.DeleteLoft,
		build: func(_ context.Context, in models.LoftInput, id uuid.UUID) (models.Loft, error) {
			l, err := in.Loft()
			l.ID = id
			return l, err
		},
		writers: adminOnly, deleters: adminOnly,
	}.routes(r, "/api/lofts")

	resource[models.Team, models.TeamInput]{
		name: "team", list: s.ListTeams, get: s.GetTeam,
		create: s.CreateTeam, update: s.UpdateTeam, remove: s.DeleteTeam,
		build: func(ctx context.Context, in models.TeamInput, id uuid.UUID) (models.Team, error) {
			t, err := in.Team()
			t.ID, t.CreatedBy = id, currentUserID(ctx)
			return t, err
		},
		writers: adminOnly, deleters: adminOnly,
	}.routes(r, "/api/teams")

	resource[models.Task, models.TaskInput]{
		name: "task", list: s.ListTasks, get: s.GetTask,
		create: s.CreateTask, update: s.UpdateTask, remove: s.DeleteTask,
		build: func(ctx context.Context, in models.TaskInput, id uuid.UUID) (models.Task, error) {
			t, err := in.Task()
			t.ID, t.CreatedBy = id, currentUserID(ctx)
			return t, err
		},
		writers: adminOrManager, deleters: adminOnly,
	}.routes(r, "/api/tasks")
}

func currentUserID(ctx context.Context) uuid.UUID {
	session, _ := auth.SessionFromContext(ctx)
	return session.User.ID
}
