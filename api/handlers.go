package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pagepicker/pagerange"
	pdfPkg "pagepicker/pdf"
	"pagepicker/selection"
	"pagepicker/store"

	"github.com/gin-gonic/gin"
)

type commitRequest struct {
	Expression string `json:"expression"`
}

type toggleRequest struct {
	Page *int `json:"page" binding:"required"`
}

type draftRequest struct {
	Text string `json:"text"`
}

type extractRequest struct {
	Expression *string `json:"expression"`
	Pages      *[]int  `json:"pages"`
}

type normalizeRequest struct {
	Expression string `json:"expression"`
	PageCount  int    `json:"page_count" binding:"required"`
}

type thumbnail struct {
	Page     int    `json:"page"`
	URL      string `json:"url"`
	Selected bool   `json:"selected"`
}

func (s *Server) HandleUpload(c *gin.Context) {
	file, header, err := formPDF(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	// Validate PDF file
	if err := validatePDFFile(file, header, s.cfg.MaxFileSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, path, err := s.store.Save(file, s.cfg.MaxFileSize)
	if err != nil {
		s.respondSaveError(c, err, "Failed to save file")
		return
	}

	pageCount, err := s.source.PageCount(c.Request.Context(), path)
	if err != nil {
		os.Remove(path)
		s.logger.Warn().Err(err).Str("filename", header.Filename).Msg("rejected unreadable PDF")
		c.JSON(http.StatusBadRequest, gin.H{"error": truncateError(err)})
		return
	}

	sess, err := selection.NewSession(pageCount,
		selection.WithValidationDelay(s.cfg.ValidationDelay),
		selection.WithLogger(s.logger.With().Str("document", id).Logger()),
	)
	if err != nil {
		os.Remove(path)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc := &store.Document{
		ID:         id,
		Filename:   sanitizeFilename(header.Filename),
		Path:       path,
		PageCount:  pageCount,
		UploadedAt: time.Now(),
		Session:    sess,
	}
	if err := s.store.Add(doc); err != nil {
		sess.Close()
		os.Remove(path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register document"})
		return
	}

	s.logger.Info().
		Str("document", id).
		Str("filename", doc.Filename).
		Int("pages", pageCount).
		Msg("document uploaded")

	c.JSON(http.StatusOK, documentResponse(doc))
}

func (s *Server) HandleListDocuments(c *gin.Context) {
	docs := s.store.List()
	out := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		out = append(out, gin.H{
			"id":          doc.ID,
			"filename":    doc.Filename,
			"page_count":  doc.PageCount,
			"uploaded_at": doc.UploadedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (s *Server) HandleGetDocument(c *gin.Context) {
	doc, ok := s.document(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, documentResponse(doc))
}

func (s *Server) HandleDeleteDocument(c *gin.Context) {
	if err := s.store.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) HandleThumbnail(c *gin.Context) {
	doc, ok := s.document(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 || page > doc.PageCount {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Page %s not found", c.Param("page"))})
		return
	}

	dpi := s.cfg.ThumbnailDPI
	if raw := c.Query("dpi"); raw != "" {
		dpi, err = strconv.Atoi(raw)
		if err != nil || dpi <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dpi must be a positive integer"})
			return
		}
	}

	data, err := s.source.RenderPage(c.Request.Context(), doc.Path, page, dpi)
	if err != nil {
		if errors.Is(err, pdfPkg.ErrPageOutOfRange) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error().Err(err).Str("document", doc.ID).Int("page", page).Msg("thumbnail render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}

	c.Header("Cache-Control", ThumbnailCacheControl)
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) HandleGetSelection(c *gin.Context) {
	doc, ok := s.document(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc.Session.State())
}

func (s *Server) HandleCommitSelection(c *gin.Context) {
	doc, ok := s.document(c)
	if !ok {
		return
	}

	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	state, err := doc.Session.Commit(req.Expression)
	respondSelection(c, state, err)
}

func (s *Server) HandleResetSelection(c *gin.Context) {
	doc, ok := s.document(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc.Session.Reset())
}

func (s *Server) HandleToggle(c *gin.Context) {
	doc, ok := s.document(c)
	if !ok {
		return
	}

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page is required"})
		return
	}

	state, err := doc.Session.Toggle(*req.Page)
	respondSelection(c, state, err)
}

func (s *Server) HandleDraft(c *gin.Context) {
	doc, ok := s.document(c)
	if !ok {
		return
	}

	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	c.JSON(http.StatusAccepted, doc.Session.Edit(req.Text))
}

func (s *Server) HandleBlur(c *gin.Context) {
	doc, ok := s.document(c)
	if !ok {
		return
	}

	state, err := doc.Session.Blur()
	respondSelection(c, state, err)
}

func (s *Server) HandleExtract(c *gin.Context) {
	doc, ok := s.document(c)
	if !ok {
		return
	}

	// The body is optional, without one the current selection is used
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var err error
	switch {
	case req.Expression != nil:
		_, err = doc.Session.Commit(*req.Expression)
	case req.Pages != nil:
		_, err = doc.Session.Set(pagerange.NewPageSet(*req.Pages...))
	}
	if err != nil {
		respondSelection(c, doc.Session.State(), err)
		return
	}

	pages := doc.Session.Pages()
	if pages.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No pages selected"})
		return
	}

	outFile := s.store.OutputPath(doc.ID)
	if err := s.extractor.Extract(c.Request.Context(), doc.Path, outFile, pages.Pages()); err != nil {
		s.logger.Error().Err(err).Str("document", doc.ID).Msg("PDF extraction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": truncateError(err)})
		return
	}

	dl, err := s.store.Publish(outFile, outputFilename(doc.Filename, extractedSuffix), s.cfg.DownloadTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish extracted file"})
		return
	}

	s.logger.Info().
		Str("document", doc.ID).
		Str("pages", pages.String()).
		Str("download", dl.Name).
		Msg("pages extracted")

	c.JSON(http.StatusOK, gin.H{
		"download_url": "/api/downloads/" + dl.Name,
		"filename":     dl.Filename,
		"pages":        pages.String(),
		"page_count":   pages.Len(),
		"expires_at":   dl.ExpiresAt,
	})
}

func (s *Server) HandleDownload(c *gin.Context) {
	dl, err := s.store.Download(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Download not found or expired"})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(dl.Path, dl.Filename)
}

func (s *Server) HandleExtractPages(c *gin.Context) {
	s.handlePagesOperation(c, extractedSuffix, func(ctx context.Context, inFile, outFile string, pages pagerange.PageSet) error {
		return s.extractor.Extract(ctx, inFile, outFile, pages.Pages())
	})
}

func (s *Server) HandleRemovePages(c *gin.Context) {
	s.handlePagesOperation(c, pagesRemovedSuffix, func(ctx context.Context, inFile, outFile string, pages pagerange.PageSet) error {
		return s.extractor.RemovePages(ctx, inFile, outFile, pages.Pages())
	})
}

func (s *Server) HandleNormalize(c *gin.Context) {
	var req normalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PageCount < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page_count must be a positive integer"})
		return
	}
	if req.PageCount > MaxNormalizePageCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("page_count must not exceed %d", MaxNormalizePageCount)})
		return
	}

	pages, err := pagerange.Parse(req.Expression, req.PageCount)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"kind":  pagerange.KindOf(err).String(),
		})
		return
	}

	resp := gin.H{
		"expression": pages.String(),
		"count":      pages.Len(),
	}
	if pages.Len() <= MaxEchoedPages {
		resp["pages"] = pages
	}
	c.JSON(http.StatusOK, resp)
}

// handlePagesOperation runs a page based operation on an uploaded file and
// sends the result for download. The "pages" form field is parsed against
// the document's page count before operation runs.
func (s *Server) handlePagesOperation(c *gin.Context, suffix string, operation func(ctx context.Context, inFile, outFile string, pages pagerange.PageSet) error) {
	file, header, err := formPDF(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF file provided"})
		return
	}
	defer file.Close()

	// Validate PDF file
	if err := validatePDFFile(file, header, s.cfg.MaxFileSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pagesParam := c.PostForm("pages")
	if strings.TrimSpace(pagesParam) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No pages specified"})
		return
	}

	_, inFile, err := s.store.Save(file, s.cfg.MaxFileSize)
	if err != nil {
		s.respondSaveError(c, err, "Failed to save input file")
		return
	}
	outFile := strings.TrimSuffix(inFile, ".pdf") + "_" + suffix + ".pdf"

	cleanup := func() {
		os.Remove(inFile)
		os.Remove(outFile)
	}

	ctx := c.Request.Context()
	pageCount, err := s.source.PageCount(ctx, inFile)
	if err != nil {
		cleanup()
		c.JSON(http.StatusBadRequest, gin.H{"error": truncateError(err)})
		return
	}

	pages, err := pagerange.Parse(pagesParam, pageCount)
	if err != nil {
		cleanup()
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"kind":  pagerange.KindOf(err).String(),
		})
		return
	}

	// Perform operation
	if err := operation(ctx, inFile, outFile, pages); err != nil {
		cleanup()
		s.logger.Error().Err(err).Str("operation", suffix).Msg("PDF operation error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": truncateError(err)})
		return
	}

	// Verify output file exists before sending
	if _, err := os.Stat(outFile); os.IsNotExist(err) {
		cleanup()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "PDF operation did not produce output file"})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(outFile, outputFilename(header.Filename, suffix))

	// Clean up temp files after the response has been written
	go func() {
		time.Sleep(FileCleanupDelay)
		cleanup()
	}()
}

// respondSaveError reports a failed store.Save. Bodies that turn out larger
// than their declared size are the client's fault.
func (s *Server) respondSaveError(c *gin.Context, err error, msg string) {
	if errors.Is(err, store.ErrTooLarge) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error().Err(err).Msg("failed to save upload")
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// document resolves the :id path parameter, writing a 404 when unknown.
func (s *Server) document(c *gin.Context) (*store.Document, bool) {
	doc, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return nil, false
	}
	return doc, true
}

func documentResponse(doc *store.Document) gin.H {
	state := doc.Session.State()

	thumbs := make([]thumbnail, doc.PageCount)
	for i := range thumbs {
		page := i + 1
		thumbs[i] = thumbnail{
			Page:     page,
			URL:      fmt.Sprintf("/api/documents/%s/pages/%d/thumbnail", doc.ID, page),
			Selected: state.Pages.Contains(page),
		}
	}

	return gin.H{
		"id":          doc.ID,
		"filename":    doc.Filename,
		"page_count":  doc.PageCount,
		"uploaded_at": doc.UploadedAt,
		"hint":        pagerange.Hint(doc.PageCount),
		"selection":   state,
		"thumbnails":  thumbs,
	}
}

// respondSelection writes the session state, or a 422 carrying the error
// kind and the unchanged state when the edit was rejected.
func respondSelection(c *gin.Context, state selection.State, err error) {
	if err == nil {
		c.JSON(http.StatusOK, state)
		return
	}

	kind := pagerange.KindOf(err)
	if kind == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":     err.Error(),
		"kind":      kind.String(),
		"selection": state,
	})
}

func formPDF(c *gin.Context) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile("pdf")
	if err == nil {
		return file, header, nil
	}
	return c.Request.FormFile("file")
}

// validatePDFFile checks the declared size and the PDF header
func validatePDFFile(file multipart.File, header *multipart.FileHeader, maxSize int64) error {
	if header.Size > maxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed %d bytes", header.Size, maxSize)
	}
	return pdfPkg.ValidateHeader(file)
}

// sanitizeFilename removes path traversal attempts and dangerous characters
func sanitizeFilename(filename string) string {
	// Remove directory separators and path traversal attempts
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")

	// Get just the base filename to prevent path issues
	filename = filepath.Base(strings.TrimSpace(filename))

	if filename == "" || filename == "." {
		filename = "document.pdf"
	}

	return filename
}

// outputFilename derives a download name such as "report_extracted.pdf"
func outputFilename(original, suffix string) string {
	name := sanitizeFilename(original)
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = name[:len(name)-4]
	}
	return name + "_" + suffix + ".pdf"
}

// truncateError shortens long library errors but keeps the key info
func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > MaxErrorMessageLength {
		return msg[:MaxErrorMessageLength] + "..."
	}
	return msg
}
