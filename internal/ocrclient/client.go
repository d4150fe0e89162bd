// Package ocrclient talks to the external OCR microservice. The service is a
// black box: one multipart POST per attempt, crop coordinates in exactly one of
// the two supported forms, JSON result back.
package ocrclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/troyfry/workorder-reconciler/internal/crop"
)

// Request describes one OCR attempt.
type Request struct {
	TemplateID string
	Page       int // 1-based
	DPI        int
	// Region may be nil (whole page). Percent form travels as the legacy
	// "region" object, points form as the xPt..pageHeightPt fields; the two are
	// mutually exclusive on the wire.
	Region crop.Region
}

// Response is the OCR service result.
type Response struct {
	WONumber        *string `json:"woNumber"`
	RawText         string  `json:"rawText"`
	ConfidenceRaw   float64 `json:"confidenceRaw"`
	SnippetImageURL string  `json:"snippetImageUrl,omitempty"`
}

// Client is the behavior the orchestrator depends on.
type Client interface {
	Recognize(ctx context.Context, pdf []byte, filename string, req Request) (Response, error)
}

type PctRegion struct {
	XPct float64 `json:"xPct"`
	YPct float64 `json:"yPct"`
	WPct float64 `json:"wPct"`
	HPct float64 `json:"hPct"`
}

type Meta struct {
	TemplateID string     `json:"templateId"`
	Page       int        `json:"page"`
	DPI        int        `json:"dpi"`
	Region     *PctRegion `json:"region,omitempty"`

	XPt          *float64 `json:"xPt,omitempty"`
	YPt          *float64 `json:"yPt,omitempty"`
	WPt          *float64 `json:"wPt,omitempty"`
	HPt          *float64 `json:"hPt,omitempty"`
	PageWidthPt  *float64 `json:"pageWidthPt,omitempty"`
	PageHeightPt *float64 `json:"pageHeightPt,omitempty"`
}

// EncodeMeta maps a Request onto the wire metadata, enforcing that percentage
// and point coordinates never appear together.
func EncodeMeta(req Request) (Meta, error) {
	m := Meta{TemplateID: req.TemplateID, Page: req.Page, DPI: req.DPI}
	switch r := req.Region.(type) {
	case nil:
	case crop.Percent:
		m.Region = &PctRegion{XPct: r.X, YPct: r.Y, WPct: r.W, HPct: r.H}
	case crop.Points:
		m.XPt, m.YPt, m.WPt, m.HPt = &r.X, &r.Y, &r.W, &r.H
		m.PageWidthPt, m.PageHeightPt = &r.PageW, &r.PageH
	default:
		return Meta{}, fmt.Errorf("unsupported region form %T", req.Region)
	}
	return m, nil
}

// HTTPClient is the production Client.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Recognize posts the PDF and attempt metadata to the OCR service.
func (c *HTTPClient) Recognize(ctx context.Context, pdf []byte, filename string, req Request) (Response, error) {
	reqID := uuid.New().String()
	start := time.Now()

	meta, err := EncodeMeta(req)
	if err != nil {
		return Response{}, err
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return Response{}, fmt.Errorf("encode meta: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Response{}, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := fw.Write(pdf); err != nil {
		return Response{}, fmt.Errorf("write pdf part: %w", err)
	}
	if err := mw.WriteField("meta", string(metaJSON)); err != nil {
		return Response{}, fmt.Errorf("write meta part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Response{}, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/recognize", &body)
	if err != nil {
		c.logger.Error("ocr.http.build_request_error", "req_id", reqID, "error", err)
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Info("ocr.http.request",
		"req_id", reqID,
		"template_id", req.TemplateID,
		"page", req.Page,
		"dpi", req.DPI,
		"pdf_bytes", len(pdf),
	)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		c.logger.Error("ocr.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Response{}, err
	}
	defer func(rc io.ReadCloser) {
		if err := rc.Close(); err != nil {
			c.logger.Warn("ocr.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("ocr.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return Response{}, fmt.Errorf("ocr service: non-2xx status %d", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, fmt.Errorf("decode ocr response: %w", err)
	}
	return out, nil
}
