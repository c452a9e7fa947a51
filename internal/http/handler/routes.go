package handler

import (
	"context"
	"database/sql"
	_ "embed"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"digisewa/internal/http/middleware"
	"digisewa/internal/model"
	"digisewa/internal/repository"
	"digisewa/internal/service"
)

//go:embed openapi.yaml
var openAPISpec []byte

// maxUploadBytes caps a single document upload. Citizen-submitted scans and
// certificates are small; anything larger is rejected before it is read.
const maxUploadBytes = 32 << 20

// RegisterRoutes wires all custody endpoints into the Fiber app.
func RegisterRoutes(app *fiber.App, svc service.CustodyService, audit repository.AuditRepository, db *sql.DB) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get("/openapi.yaml", OpenAPISpec())

	docs := app.Group("/documents")
	docs.Post("/", UploadDocument(svc))
	docs.Get("/", ListDocuments(svc))
	docs.Get("/code/:code", RetrieveByCode(svc))
	docs.Get("/:id", GetDocument(svc))
	docs.Get("/:id/content", GetDocumentContent(svc))
	docs.Get("/:id/verify", VerifyAnchor(svc))
	docs.Get("/:id/audit", GetAuditTrail(audit))
	docs.Patch("/:id/status", SetDocumentStatus(svc))
	docs.Post("/:id/grants", GrantAccess(svc))
}

// OpenAPISpec serves the bundled API description.
func OpenAPISpec() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(openAPISpec)
	}
}

// GetAuditTrail returns the recorded access decisions for a document.
// Restricted to privileged roles; the trail names who looked at what.
func GetAuditTrail(audit repository.AuditRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := middleware.RequesterFromCtx(c)
		if !req.Role.Privileged() {
			return writeError(c, fiber.StatusForbidden, "ACCESS_DENIED", "access denied")
		}

		events, err := audit.ListByDocument(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"document_id": c.Params("id"), "events": events})
	}
}

// HealthCheck reports readiness, including a database ping.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "database not reachable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// LivenessProbe reports that the process is up. No dependencies are checked.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// UploadDocument accepts a multipart upload and runs it through the custody
// pipeline. The document owner is the authenticated requester.
//
// Form fields:
// - file (required): the document content
// - department (required): owning department label
// - application_id (optional): citizen application this document belongs to
// - access_code (optional): enables later retrieval by code
// - owner_id (optional): owner override for service-to-service uploads without
//   identity headers
func UploadDocument(svc service.CustodyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := middleware.RequesterFromCtx(c)
		ownerID := req.ID
		if ownerID == "" {
			// Service-to-service uploads carry the owner in the form instead
			// of identity headers.
			ownerID = c.FormValue("owner_id")
		}
		if ownerID == "" {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "missing requester identity")
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		}
		if fileHeader.Size > maxUploadBytes {
			return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds upload limit")
		}

		f, err := fileHeader.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "file could not be read")
		}
		defer f.Close()

		plaintext, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "file could not be read")
		}
		if len(plaintext) > maxUploadBytes {
			return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds upload limit")
		}

		res, err := svc.Ingest(c.UserContext(), service.IngestInput{
			Plaintext:     plaintext,
			OriginalName:  fileHeader.Filename,
			MimeType:      fileHeader.Header.Get("Content-Type"),
			OwnerID:       ownerID,
			Department:    c.FormValue("department"),
			ApplicationID: c.FormValue("application_id"),
			AccessCode:    c.FormValue("access_code"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GetDocumentContent authorizes the requester and streams back the decrypted
// document bytes with its original content type.
func GetDocumentContent(svc service.CustodyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := middleware.RequesterFromCtx(c)

		content, err := svc.Retrieve(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return writeServiceError(c, err)
		}

		mimeType := content.Document.MimeType
		if mimeType == "" {
			mimeType = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, mimeType)
		c.Set("X-Content-Digest", content.Document.ContentDigest)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+content.Document.OriginalName+`"`)

		return c.Send(content.Plaintext)
	}
}

// RetrieveByCode serves document content to whoever presents a valid access
// code. Wrong codes are indistinguishable from missing documents.
func RetrieveByCode(svc service.CustodyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		content, err := svc.RetrieveByCode(c.UserContext(), c.Params("code"))
		if err != nil {
			return writeServiceError(c, err)
		}

		mimeType := content.Document.MimeType
		if mimeType == "" {
			mimeType = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, mimeType)
		c.Set("X-Content-Digest", content.Document.ContentDigest)

		return c.Send(content.Plaintext)
	}
}

// GetDocument returns a single document's redacted metadata.
func GetDocument(svc service.CustodyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := middleware.RequesterFromCtx(c)

		doc, err := svc.Get(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// ListDocuments lists an owner's documents with limit/offset pagination.
func ListDocuments(svc service.CustodyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := c.Query("owner_id")
		limit := queryInt(c, "limit", 10)
		offset := queryInt(c, "offset", 0)

		res, err := svc.ListByOwner(c.UserContext(), ownerID, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

type setStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

// SetDocumentStatus records a verification decision on a document.
func SetDocumentStatus(svc service.CustodyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body setStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		}

		req := middleware.RequesterFromCtx(c)

		doc, err := svc.SetStatus(c.UserContext(), c.Params("id"), model.Status(body.Status), req, body.Remarks)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

type grantRequest struct {
	DepartmentID string `json:"department_id"`
	AccessPolicy string `json:"access_policy"`
}

// GrantAccess shares a document with a department. Granting twice for the
// same department updates the existing grant instead of erroring.
func GrantAccess(svc service.CustodyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body grantRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		}

		req := middleware.RequesterFromCtx(c)

		doc, err := svc.GrantDepartmentAccess(c.UserContext(), c.Params("id"), body.DepartmentID, body.AccessPolicy, req.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// VerifyAnchor reports whether the ledger record still matches the stored
// digest. Informational only.
func VerifyAnchor(svc service.CustodyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := middleware.RequesterFromCtx(c)

		ok, err := svc.VerifyAnchor(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"document_id": c.Params("id"), "verified": ok})
	}
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
