package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inventory-tracker/internal/parse"
)

const (
	errNameRequired   = "Name is required"
	errIDAndName      = "ID and name are required"
	errIDRequired     = "ID is required"
	errBadPart        = "Missing or invalid part data"
	errBadPosition    = "Invalid position"
	errInvalidJSON    = "Invalid JSON"
	errUnknownAction  = "Unknown action"
	errMachineMissing = "Machine not found"
	errPartMissing    = "Part not found"
)

type actionFunc func(h *Handler, c *gin.Context, req *actionRequest)

var actions = map[string]actionFunc{
	"add_machine":    (*Handler).addMachine,
	"edit_machine":   (*Handler).editMachine,
	"delete_machine": (*Handler).deleteMachine,
	"move_machine":   (*Handler).moveMachine,
	"add_part":       (*Handler).addPart,
	"edit_part":      (*Handler).editPart,
	"delete_part":    (*Handler).deletePart,
	"move_part":      (*Handler).movePart,
}

// Dispatch handles POST /api/actions.
func (h *Handler) Dispatch(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, errInvalidJSON)
		return
	}
	req, ok := decodeAction(body)
	if !ok {
		badRequest(c, errInvalidJSON)
		return
	}

	fn, ok := actions[string(req.Action)]
	if !ok {
		badRequest(c, errUnknownAction)
		return
	}
	fn(h, c, req)
}

func (h *Handler) addMachine(c *gin.Context, req *actionRequest) {
	name, err := parse.Name(string(req.Name))
	if err != nil {
		badRequest(c, errNameRequired)
		return
	}

	var parentID *int64
	if req.ParentID.Bad {
		badRequest(c, "Invalid parent_id")
		return
	}
	if id, ok := req.ParentID.id(); ok {
		parentID = &id
	}

	m, err := h.store.CreateMachine(c.Request.Context(), name, parentID)
	if err != nil {
		h.fail(c, err, errMachineMissing)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": m.ID})
}

func (h *Handler) editMachine(c *gin.Context, req *actionRequest) {
	id, okID := req.ID.id()
	name, err := parse.Name(string(req.Name))
	if !okID || err != nil {
		badRequest(c, errIDAndName)
		return
	}
	if err := h.store.RenameMachine(c.Request.Context(), id, name); err != nil {
		h.fail(c, err, errMachineMissing)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteMachine(c *gin.Context, req *actionRequest) {
	id, ok := req.ID.id()
	if !ok {
		badRequest(c, errIDRequired)
		return
	}
	if err := h.store.DeleteMachine(c.Request.Context(), id); err != nil {
		h.fail(c, err, errMachineMissing)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) moveMachine(c *gin.Context, req *actionRequest) {
	id, position, ok := moveArgs(c, req)
	if !ok {
		return
	}
	if err := h.store.MoveMachine(c.Request.Context(), id, position); err != nil {
		h.fail(c, err, errMachineMissing)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) addPart(c *gin.Context, req *actionRequest) {
	machineID, ok := req.MachineID.id()
	in, valid := partArgs(req)
	if !ok || !valid {
		badRequest(c, errBadPart)
		return
	}
	p, err := h.store.CreatePart(c.Request.Context(), machineID, in)
	if err != nil {
		h.fail(c, err, errMachineMissing)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": p.ID})
}

func (h *Handler) editPart(c *gin.Context, req *actionRequest) {
	id, ok := req.ID.id()
	in, valid := partArgs(req)
	if !ok || !valid {
		badRequest(c, errBadPart)
		return
	}
	if err := h.store.UpdatePart(c.Request.Context(), id, in); err != nil {
		h.fail(c, err, errPartMissing)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deletePart(c *gin.Context, req *actionRequest) {
	id, ok := req.ID.id()
	if !ok {
		badRequest(c, errIDRequired)
		return
	}
	if err := h.store.DeletePart(c.Request.Context(), id); err != nil {
		h.fail(c, err, errPartMissing)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) movePart(c *gin.Context, req *actionRequest) {
	id, position, ok := moveArgs(c, req)
	if !ok {
		return
	}
	if err := h.store.MovePart(c.Request.Context(), id, position); err != nil {
		h.fail(c, err, errPartMissing)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func partArgs(req *actionRequest) (parse.PartInput, bool) {
	if !req.Quantity.Set || req.Quantity.Bad || req.Quantity.Value > int64(^uint32(0)>>1) {
		return parse.PartInput{}, false
	}
	in, err := parse.Part(string(req.PartNumber), int(req.Quantity.Value), string(req.Location))
	if err != nil {
		return parse.PartInput{}, false
	}
	return in, true
}

// moveArgs reads id and position; negative positions are clamped by the store.
func moveArgs(c *gin.Context, req *actionRequest) (int64, int, bool) {
	id, ok := req.ID.id()
	if !ok {
		badRequest(c, errIDRequired)
		return 0, 0, false
	}
	if !req.Position.Set || req.Position.Bad {
		badRequest(c, errBadPosition)
		return 0, 0, false
	}
	position := req.Position.Value
	if position > 1<<30 {
		position = 1 << 30
	}
	if position < -1<<30 {
		position = -1 << 30
	}
	return id, int(position), true
}
