package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/proofnote/internal/pkg/errcode"
	"github.com/xxxsen/proofnote/internal/pkg/response"
	"github.com/xxxsen/proofnote/internal/service"
)

type NoteHandler struct {
	notes *service.CorrectionService
}

func NewNoteHandler(notes *service.CorrectionService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type analyzeRequest struct {
	Content string `json:"content"`
}

type applyRequest struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

type applyResponse struct {
	OK       bool   `json:"ok"`
	BackedUp bool   `json:"backed_up"`
	Warning  string `json:"warning,omitempty"`
}

type backupResponse struct {
	HasBackup bool  `json:"has_backup"`
	Timestamp int64 `json:"timestamp,omitempty"`
}

type restoreResponse struct {
	Content string `json:"content"`
}

type cancelResponse struct {
	Canceled bool `json:"canceled"`
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	doc, err := h.notes.CreateNote(c.Request.Context(), getUserID(c), req.Title, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *NoteHandler) Get(c *gin.Context) {
	doc, err := h.notes.GetNote(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *NoteHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
	}
	review, err := h.notes.Analyze(c.Request.Context(), getUserID(c), c.Param("id"), req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, review)
}

func (h *NoteHandler) Status(c *gin.Context) {
	snap, err := h.notes.Status(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *NoteHandler) Cancel(c *gin.Context) {
	canceled, err := h.notes.Cancel(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, cancelResponse{Canceled: canceled})
}

func (h *NoteHandler) Apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	res, err := h.notes.Apply(c.Request.Context(), getUserID(c), c.Param("id"), req.Original, req.Corrected)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, applyResponse{OK: true, BackedUp: res.BackedUp, Warning: res.Warning})
}

func (h *NoteHandler) Backup(c *gin.Context) {
	b, err := h.notes.Backup(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if b == nil {
		response.Success(c, backupResponse{})
		return
	}
	response.Success(c, backupResponse{HasBackup: true, Timestamp: b.Timestamp})
}

func (h *NoteHandler) Restore(c *gin.Context) {
	content, err := h.notes.Restore(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, restoreResponse{Content: content})
}
