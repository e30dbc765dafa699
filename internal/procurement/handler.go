package procurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atelierhq/atelier/pkg"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger         apt.Logger
	config         *apt.Config
	tlm            *telemetry.HTTP
	engine         *Engine
	orderRepo      OrderRepo
	itemRepo       ItemRepo
	supplierStates *SupplierStateCache
	publisher      events.Publisher
}

type HandlerDeps struct {
	Engine              *Engine
	Repos               Repos
	SupplierStatesCache *SupplierStateCache
	Publisher           events.Publisher
}

type Repos struct {
	OrderRepo OrderRepo
	ItemRepo  ItemRepo
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return &Handler{
		config:         config,
		logger:         logger,
		tlm:            telemetry.NewHTTP(),
		engine:         hd.Engine,
		orderRepo:      hd.Repos.OrderRepo,
		itemRepo:       hd.Repos.ItemRepo,
		supplierStates: hd.SupplierStatesCache,
		publisher:      hd.Publisher,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/purchase-orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}", h.UpdateOrder)
		r.Post("/{id}/cancel", h.CancelOrder)
		r.Delete("/{id}", h.DeleteOrder)
	})

	r.Route("/items", func(r chi.Router) {
		r.Post("/", h.CreateItem)
		r.Get("/", h.ListItems)
		r.Get("/{id}", h.GetItem)
		r.Put("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.DeleteItem)
	})

	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/eligible-items", h.EligibleItems)
		r.Post("/repair", h.RepairProject)
	})
}

// Purchase order handlers

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeOrderSavePayload(w, r, log)
	if !ok {
		return
	}

	if req.ProjectID == uuid.Nil {
		log.Debug("missing project id in create order request")
		apt.RespondError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	status, err := h.ensureSupplierAllowsOrdering(ctx, req.SupplierID)
	if err != nil {
		log.Info("supplier cannot accept orders", "supplier_id", req.SupplierID.String(), "status", status, "error", err)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := SaveInput{
		ProjectID:    req.ProjectID,
		SupplierID:   req.SupplierID,
		Number:       strings.TrimSpace(req.Number),
		Status:       req.Status,
		OrderDate:    req.OrderDate,
		DeliveryDate: req.DeliveryDate,
		Notes:        req.Notes,
		MemberIDs:    req.MemberItemIDs,
	}
	if in.Status == "" {
		in.Status = OrderStatusDraft
	}

	result, err := h.engine.Save(ctx, in)
	if err != nil {
		h.respondEngineError(w, log, err, "create order")
		return
	}

	h.publishOrderEvent(ctx, pkg.EventOrderSaved, result)
	h.publishItemsReconciled(ctx, result.Order, result.ChangedItems)

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, result.Order, apt.RESTfulLinksFor(result.Order)...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, err := h.orderRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading purchase order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Purchase order not found")
		return
	}

	if order == nil {
		apt.RespondError(w, http.StatusNotFound, "Purchase order not found")
		return
	}

	items, err := h.itemRepo.ListByOrder(ctx, id)
	if err != nil {
		log.Error("cannot derive order membership", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve order items")
		return
	}

	total := 0.0
	for _, it := range items {
		total += it.Total()
	}

	response := map[string]interface{}{
		"order":         order,
		"items":         items,
		"claimed_total": total,
	}
	apt.Respond(w, http.StatusOK, response, nil)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	projectIDStr := r.URL.Query().Get("project_id")
	status := r.URL.Query().Get("status")

	var orders []*PurchaseOrder
	var err error

	if projectIDStr != "" {
		projectID, parseErr := uuid.Parse(projectIDStr)
		if parseErr != nil {
			log.Debug("invalid project_id parameter", "project_id", projectIDStr)
			apt.RespondError(w, http.StatusBadRequest, "Invalid project_id parameter")
			return
		}
		orders, err = h.orderRepo.ListByProject(ctx, projectID)
	} else if status != "" {
		orders, err = h.orderRepo.ListByStatus(ctx, status)
	} else {
		orders, err = h.orderRepo.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving purchase orders", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve purchase orders")
		return
	}

	apt.RespondCollection(w, orders, "purchase-order")
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeOrderSavePayload(w, r, log)
	if !ok {
		return
	}

	if req.Status == "" {
		stored, err := h.orderRepo.Get(ctx, id)
		if err != nil || stored == nil {
			log.Error("purchase order not found", "error", err, "id", id.String())
			apt.RespondError(w, http.StatusNotFound, "Purchase order not found")
			return
		}
		req.Status = stored.Status
	}

	in := SaveInput{
		OrderID:      &id,
		SupplierID:   req.SupplierID,
		Number:       strings.TrimSpace(req.Number),
		Status:       req.Status,
		OrderDate:    req.OrderDate,
		DeliveryDate: req.DeliveryDate,
		Notes:        req.Notes,
		MemberIDs:    req.MemberItemIDs,
	}

	result, err := h.engine.Save(ctx, in)
	if err != nil {
		h.respondEngineError(w, log, err, "update order")
		return
	}

	eventType := pkg.EventOrderSaved
	if result.Order.IsCancelled() {
		eventType = pkg.EventOrderCancelled
	}
	h.publishOrderEvent(ctx, eventType, result)
	h.publishItemsReconciled(ctx, result.Order, result.ChangedItems)

	response := map[string]interface{}{
		"order":         result.Order,
		"changed_items": result.ChangedItems,
	}
	apt.Respond(w, http.StatusOK, response, nil)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	result, err := h.engine.Save(ctx, SaveInput{
		OrderID: &id,
		Status:  OrderStatusCancelled,
	})
	if err != nil {
		h.respondEngineError(w, log, err, "cancel order")
		return
	}

	h.publishOrderEvent(ctx, pkg.EventOrderCancelled, result)
	h.publishItemsReconciled(ctx, result.Order, result.ChangedItems)

	log.Info("purchase order cancelled", "order_id", id, "released_items", len(result.ChangedItems))

	response := map[string]interface{}{
		"order":          result.Order,
		"released_items": result.ChangedItems,
	}
	apt.Respond(w, http.StatusOK, response, nil)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	result, err := h.engine.Delete(ctx, id)
	if err != nil {
		h.respondEngineError(w, log, err, "delete order")
		return
	}

	h.publishOrderDeleted(ctx, result)

	log.Info("purchase order deleted", "order_id", id, "released_items", len(result.ReleasedItems))
	w.WriteHeader(http.StatusNoContent)
}

// Item handlers

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeItemCreatePayload(w, r, log)
	if !ok {
		return
	}

	if req.ProjectID == uuid.Nil {
		apt.RespondError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	if req.SupplierID == uuid.Nil {
		apt.RespondError(w, http.StatusBadRequest, "supplier_id is required")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apt.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Quantity < 0 || req.UnitCost < 0 {
		apt.RespondError(w, http.StatusBadRequest, "quantity and unit_cost must be non-negative")
		return
	}

	item := NewItem()
	item.ProjectID = req.ProjectID
	item.SupplierID = req.SupplierID
	item.Name = strings.TrimSpace(req.Name)
	item.Reference = req.Reference
	item.Quantity = req.Quantity
	item.UnitCost = req.UnitCost
	item.Excluded = req.Excluded
	item.BeforeCreate()

	if err := h.itemRepo.Create(ctx, item); err != nil {
		log.Error("cannot create item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create item")
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	item, err := h.itemRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Item not found")
		return
	}

	if item == nil {
		apt.RespondError(w, http.StatusNotFound, "Item not found")
		return
	}

	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListItems")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	projectIDStr := r.URL.Query().Get("project_id")
	if projectIDStr == "" {
		apt.RespondError(w, http.StatusBadRequest, "project_id parameter is required")
		return
	}

	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		log.Debug("invalid project_id parameter", "project_id", projectIDStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid project_id parameter")
		return
	}

	items, err := h.itemRepo.ListByProject(ctx, projectID)
	if err != nil {
		log.Error("error retrieving items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve items")
		return
	}

	apt.RespondCollection(w, items, "item")
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	item, err := h.itemRepo.Get(ctx, id)
	if err != nil || item == nil {
		log.Error("item not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Item not found")
		return
	}

	req, ok := h.decodeItemUpdatePayload(w, r, log)
	if !ok {
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			apt.RespondError(w, http.StatusBadRequest, "name must not be empty")
			return
		}
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Reference != nil {
		item.Reference = *req.Reference
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			apt.RespondError(w, http.StatusBadRequest, "quantity must be non-negative")
			return
		}
		item.Quantity = *req.Quantity
	}
	if req.UnitCost != nil {
		if *req.UnitCost < 0 {
			apt.RespondError(w, http.StatusBadRequest, "unit_cost must be non-negative")
			return
		}
		item.UnitCost = *req.UnitCost
	}
	if req.Excluded != nil {
		if *req.Excluded && item.OrderID != nil {
			apt.RespondError(w, http.StatusBadRequest, "item is claimed by an order and cannot be excluded; remove it from the order first")
			return
		}
		item.Excluded = *req.Excluded
	}

	item.BeforeUpdate()

	if err := h.itemRepo.Save(ctx, item); err != nil {
		log.Error("cannot update item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update item")
		return
	}

	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	item, err := h.itemRepo.Get(ctx, id)
	if err != nil || item == nil {
		log.Error("item not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Item not found")
		return
	}

	if item.OrderID != nil {
		active, checkErr := h.ownerActive(ctx, *item.OrderID)
		if checkErr != nil {
			log.Error("cannot check owning order", "error", checkErr, "id", id.String())
			apt.RespondError(w, http.StatusInternalServerError, "Could not delete item")
			return
		}
		if active {
			apt.RespondError(w, http.StatusBadRequest, "item is claimed by an active order and cannot be deleted")
			return
		}
	}

	if err := h.itemRepo.Delete(ctx, id); err != nil {
		log.Error("cannot delete item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Project handlers

func (h *Handler) EligibleItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.EligibleItems")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	projectID, ok := h.parseProjectIDParam(w, r, log)
	if !ok {
		return
	}

	supplierIDStr := r.URL.Query().Get("supplier_id")
	supplierID, err := uuid.Parse(supplierIDStr)
	if err != nil {
		log.Debug("invalid supplier_id parameter", "supplier_id", supplierIDStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid supplier_id parameter")
		return
	}

	var editingOrderID *uuid.UUID
	if orderIDStr := r.URL.Query().Get("order_id"); orderIDStr != "" {
		orderID, parseErr := uuid.Parse(orderIDStr)
		if parseErr != nil {
			log.Debug("invalid order_id parameter", "order_id", orderIDStr)
			apt.RespondError(w, http.StatusBadRequest, "Invalid order_id parameter")
			return
		}
		editingOrderID = &orderID
	}

	// Eligibility is the first read that cares about ownership being
	// consistent, so a repair pass runs before listing to converge anything a
	// crashed save left behind. A repair failure only logs; the listing
	// proceeds on the store as-is.
	repaired, repairErr := h.engine.Repair(ctx, projectID)
	if repairErr != nil {
		log.Error("repair pass failed before eligibility listing", "error", repairErr, "project_id", projectID.String())
	} else if len(repaired) > 0 {
		h.publishItemsReconciledForProject(ctx, projectID, repaired)
	}

	items, err := h.engine.EligibleItems(ctx, projectID, supplierID, editingOrderID)
	if err != nil {
		log.Error("cannot list eligible items", "error", err, "project_id", projectID.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve eligible items")
		return
	}

	apt.RespondCollection(w, items, "item")
}

func (h *Handler) RepairProject(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RepairProject")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	projectID, ok := h.parseProjectIDParam(w, r, log)
	if !ok {
		return
	}

	repaired, err := h.engine.Repair(ctx, projectID)
	if err != nil {
		log.Error("repair pass failed", "error", err, "project_id", projectID.String())
		apt.RespondError(w, http.StatusInternalServerError, "Repair pass failed")
		return
	}

	if len(repaired) > 0 {
		h.publishItemsReconciledForProject(ctx, projectID, repaired)
	}

	response := map[string]interface{}{
		"repaired_count": len(repaired),
		"items":          repaired,
	}
	apt.Respond(w, http.StatusOK, response, nil)
}

// Helper methods

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) parseProjectIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "projectID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid project ID", "projectID", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid project ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) ownerActive(ctx context.Context, orderID uuid.UUID) (bool, error) {
	owner, err := h.orderRepo.Get(ctx, orderID)
	if err != nil {
		return false, err
	}
	return owner != nil && !owner.IsCancelled(), nil
}

func (h *Handler) respondEngineError(w http.ResponseWriter, log apt.Logger, err error, action string) {
	switch {
	case IsValidation(err):
		log.Debug("validation rejection", "action", action, "error", err)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOrderNotFound):
		apt.RespondError(w, http.StatusNotFound, "Purchase order not found")
	case errors.Is(err, ErrSaveInFlight):
		apt.RespondError(w, http.StatusConflict, "Another save for this order is in progress, retry shortly")
	default:
		log.Error("store failure during reconciliation", "action", action, "error", err)
		apt.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Could not %s", action))
	}
}

func (h *Handler) ensureSupplierAllowsOrdering(ctx context.Context, supplierID uuid.UUID) (string, error) {
	if supplierID == uuid.Nil {
		return "", fmt.Errorf("supplier_id is required")
	}
	if h.supplierStates == nil {
		return "", nil
	}
	status, err := h.supplierStates.Ensure(ctx, supplierID)
	if err != nil {
		return status, err
	}
	if status == "" {
		return status, fmt.Errorf("supplier status unavailable")
	}
	switch status {
	case "active", "preferred":
		return status, nil
	default:
		return status, fmt.Errorf("supplier is %s", status)
	}
}

// Payload decoders

type OrderSaveRequest struct {
	ProjectID     uuid.UUID   `json:"project_id,omitempty"`
	SupplierID    uuid.UUID   `json:"supplier_id,omitempty"`
	Number        string      `json:"number,omitempty"`
	Status        string      `json:"status,omitempty"`
	OrderDate     *time.Time  `json:"order_date,omitempty"`
	DeliveryDate  *time.Time  `json:"delivery_date,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	MemberItemIDs []uuid.UUID `json:"member_item_ids"`
}

type ItemCreateRequest struct {
	ProjectID  uuid.UUID `json:"project_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	Name       string    `json:"name"`
	Reference  string    `json:"reference,omitempty"`
	Quantity   int       `json:"quantity"`
	UnitCost   float64   `json:"unit_cost"`
	Excluded   bool      `json:"excluded"`
}

type ItemUpdateRequest struct {
	Name      *string  `json:"name,omitempty"`
	Reference *string  `json:"reference,omitempty"`
	Quantity  *int     `json:"quantity,omitempty"`
	UnitCost  *float64 `json:"unit_cost,omitempty"`
	Excluded  *bool    `json:"excluded,omitempty"`
}

func (h *Handler) decodeOrderSavePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (OrderSaveRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return OrderSaveRequest{}, false
	}

	var req OrderSaveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return OrderSaveRequest{}, false
	}

	return req, true
}

func (h *Handler) decodeItemCreatePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (ItemCreateRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return ItemCreateRequest{}, false
	}

	var req ItemCreateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return ItemCreateRequest{}, false
	}

	return req, true
}

func (h *Handler) decodeItemUpdatePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (ItemUpdateRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return ItemUpdateRequest{}, false
	}

	var req ItemUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return ItemUpdateRequest{}, false
	}

	return req, true
}

// Event publishing

func (h *Handler) publishOrderEvent(ctx context.Context, eventType string, result *SaveResult) {
	if h.publisher == nil {
		return
	}

	evt := pkg.PurchaseOrderEvent{
		EventType:      eventType,
		OccurredAt:     time.Now().UTC(),
		OrderID:        result.Order.ID.String(),
		ProjectID:      result.Order.ProjectID.String(),
		SupplierID:     result.Order.SupplierID.String(),
		Status:         result.Order.Status,
		PreviousStatus: result.PreviousStatus,
	}
	for _, it := range result.ChangedItems {
		evt.ChangedItemIDs = append(evt.ChangedItemIDs, it.ID.String())
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal purchase order event", "error", err, "order_id", evt.OrderID)
		return
	}
	if err := h.publisher.Publish(ctx, pkg.ProcurementOrdersTopic, payload); err != nil {
		h.logger.Error("cannot publish purchase order event", "error", err, "order_id", evt.OrderID)
	}
}

func (h *Handler) publishOrderDeleted(ctx context.Context, result *DeleteResult) {
	if h.publisher == nil {
		return
	}

	evt := pkg.PurchaseOrderEvent{
		EventType:      pkg.EventOrderDeleted,
		OccurredAt:     time.Now().UTC(),
		OrderID:        result.Order.ID.String(),
		ProjectID:      result.Order.ProjectID.String(),
		SupplierID:     result.Order.SupplierID.String(),
		PreviousStatus: result.Order.Status,
	}
	for _, it := range result.ReleasedItems {
		evt.ChangedItemIDs = append(evt.ChangedItemIDs, it.ID.String())
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal purchase order event", "error", err, "order_id", evt.OrderID)
		return
	}
	if err := h.publisher.Publish(ctx, pkg.ProcurementOrdersTopic, payload); err != nil {
		h.logger.Error("cannot publish purchase order event", "error", err, "order_id", evt.OrderID)
	}
}

func (h *Handler) publishItemsReconciled(ctx context.Context, order *PurchaseOrder, changed []*Item) {
	if h.publisher == nil || len(changed) == 0 {
		return
	}

	evt := pkg.ItemReconciliationEvent{
		EventType:  pkg.EventItemsReconciled,
		OccurredAt: time.Now().UTC(),
		ProjectID:  order.ProjectID.String(),
		OrderID:    order.ID.String(),
	}
	for _, it := range changed {
		note := pkg.ItemReconciliationNote{
			ItemID:            it.ID.String(),
			FulfillmentStatus: it.FulfillmentStatus,
		}
		if it.OrderID != nil {
			note.OrderID = it.OrderID.String()
		}
		evt.Changes = append(evt.Changes, note)
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal item reconciliation event", "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, pkg.ProcurementItemsTopic, payload); err != nil {
		h.logger.Error("cannot publish item reconciliation event", "error", err)
	}
}

func (h *Handler) publishItemsReconciledForProject(ctx context.Context, projectID uuid.UUID, changed []*Item) {
	if h.publisher == nil || len(changed) == 0 {
		return
	}

	evt := pkg.ItemReconciliationEvent{
		EventType:  pkg.EventItemsReconciled,
		OccurredAt: time.Now().UTC(),
		ProjectID:  projectID.String(),
	}
	for _, it := range changed {
		note := pkg.ItemReconciliationNote{
			ItemID:            it.ID.String(),
			FulfillmentStatus: it.FulfillmentStatus,
		}
		if it.OrderID != nil {
			note.OrderID = it.OrderID.String()
		}
		evt.Changes = append(evt.Changes, note)
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal item reconciliation event", "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, pkg.ProcurementItemsTopic, payload); err != nil {
		h.logger.Error("cannot publish item reconciliation event", "error", err)
	}
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
