package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"greenledger/internal/csvexport"
	"greenledger/internal/domain"
	"greenledger/internal/port"
	"greenledger/internal/service"
)

// InvoiceHandler handles invoice ingestion and query endpoints.
type InvoiceHandler struct {
	ingest service.IngestService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(ingest service.IngestService) *InvoiceHandler {
	return &InvoiceHandler{ingest: ingest}
}

// Upload handles POST /api/v1/invoices/upload. The multipart "file" field
// carries the PDF; the filename drives the filename authority rules.
func (h *InvoiceHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "READ_FAILED", "could not read uploaded file")
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), header.Filename, data)
	if err != nil {
		HandleError(c, err)
		return
	}

	// Extraction failures are reported in-band: the caller gets the error
	// record and a 422, not a stored invoice.
	if result.Invoice.Failed() {
		c.JSON(http.StatusUnprocessableEntity, APIResponse{Success: false, Data: result,
			Error: &APIError{Code: "EXTRACTION_FAILED", Message: result.Invoice.Error}})
		return
	}
	RespondCreated(c, result)
}

// List handles GET /api/v1/invoices with optional store and status filters.
func (h *InvoiceHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	filter := port.InvoiceFilter{
		Store:  domain.Store(c.Query("store")),
		Status: domain.InvoiceStatus(c.Query("status")),
	}

	invoices, total, err := h.ingest.ListInvoices(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice id")
		return
	}

	inv, err := h.ingest.GetInvoice(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Delete handles DELETE /api/v1/invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice id")
		return
	}

	if err := h.ingest.DeleteInvoice(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

// Duplicates handles GET /api/v1/invoices/duplicates?invoice_number=N&receiver=R
func (h *InvoiceHandler) Duplicates(c *gin.Context) {
	number := c.Query("invoice_number")
	receiver := c.Query("receiver")
	if number == "" || receiver == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_PARAMS", "invoice_number and receiver are required")
		return
	}

	matches, err := h.ingest.CheckDuplicate(c.Request.Context(), number, receiver)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"duplicates": matches, "is_duplicate": len(matches) > 0})
}

// Export handles GET /api/v1/invoices/export?format=csv|xlsx with the
// same filters as List. Rows are line-item flat.
func (h *InvoiceHandler) Export(c *gin.Context) {
	filter := port.InvoiceFilter{
		Store:  domain.Store(c.Query("store")),
		Status: domain.InvoiceStatus(c.Query("status")),
	}

	// Export is unpaginated; the cap keeps a runaway query from buffering
	// the whole table.
	invoices, _, err := h.ingest.ListInvoices(c.Request.Context(), filter, 0, 10000)
	if err != nil {
		HandleError(c, err)
		return
	}

	name := "invoices"
	if filter.Store != "" {
		name = string(filter.Store)
	}

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		var buf bytes.Buffer
		if err := csvexport.WriteXLSX(&buf, invoices); err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+csvexport.BuildFilename(name, "xlsx")+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())

	case "csv":
		var buf bytes.Buffer
		buf.Write(csvexport.BOM)
		w := csvexport.NewWriter(&buf)
		if err := w.WriteHeader(); err != nil {
			HandleError(c, err)
			return
		}
		if err := w.WriteInvoices(invoices); err != nil {
			HandleError(c, err)
			return
		}
		w.Flush()
		if err := w.Error(); err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+csvexport.BuildFilename(name, "csv")+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())

	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
	}
}

// pagination parses offset/limit query params with sane bounds.
func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
