package publish

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/services"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"github.com/sahilchouksey/study-notes-bot/utils/response"
	"github.com/sahilchouksey/study-notes-bot/utils/validation"
)

// Notifier starts new-document fan-outs
type Notifier interface {
	OnDocumentPublished(ctx context.Context, documentID uint)
	NotifyNewDocument(ctx context.Context, documentID uint) (*services.FanoutReport, error)
}

// DocumentFinder looks up published documents
type DocumentFinder interface {
	GetDocument(ctx context.Context, id uint) (*model.Document, error)
}

// PublishHandler receives publish events from the admin panel
type PublishHandler struct {
	notifier  Notifier
	documents DocumentFinder
	validator *validation.Validator
	log       *logger.Logger
}

// NewPublishHandler creates a new publish handler
func NewPublishHandler(notifier Notifier, documents DocumentFinder, log *logger.Logger) *PublishHandler {
	return &PublishHandler{
		notifier:  notifier,
		documents: documents,
		validator: validation.NewValidator(),
		log:       log.With("component", "publish_handler"),
	}
}

type publishRequest struct {
	DocumentID uint `validate:"required,gt=0"`
	Wait       bool
}

// HandleDocumentPublished handles POST /api/v1/documents/:id/published
// Notifies the subscribers of the document's course. The fan-out runs in the background
// unless ?wait=true is given, in which case the delivery report is returned.
func (h *PublishHandler) HandleDocumentPublished(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return response.BadRequest(c, "Invalid document id")
	}

	req := publishRequest{DocumentID: uint(id), Wait: c.QueryBool("wait", false)}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	doc, err := h.documents.GetDocument(c.UserContext(), req.DocumentID)
	if errors.Is(err, services.ErrNotFound) {
		return response.NotFound(c, "Document not found")
	}
	if err != nil {
		h.log.Error("failed to load document", "document_id", req.DocumentID, "error", err)
		return response.InternalServerError(c, "Failed to load document")
	}

	if !req.Wait {
		h.notifier.OnDocumentPublished(c.UserContext(), doc.ID)
		return response.Accepted(c, "Notification fan-out started", fiber.Map{"document_id": doc.ID})
	}

	report, err := h.notifier.NotifyNewDocument(c.UserContext(), doc.ID)
	if errors.Is(err, services.ErrNotFound) {
		return response.NotFound(c, "Document is no longer in the catalog")
	}
	if err != nil {
		h.log.Error("fan-out failed", "document_id", doc.ID, "error", err)
		return response.InternalServerError(c, "Failed to notify subscribers")
	}
	return response.SuccessWithMessage(c, "Subscribers notified", report)
}
