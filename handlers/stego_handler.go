// Package handlers is made to handle requests
package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"steg/models"
	"steg/service"
	"steg/stego"
)

const (
	Version = "1.0.0"

	multipartMemory = 32 << 20
)

var errMissingMessage = errors.New("either secret_file or message is required")

type StegoHandler struct {
	service        *service.Service
	maxUploadBytes int64
}

func NewStegoHandler(svc *service.Service, maxUploadBytes int64) *StegoHandler {
	return &StegoHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Steganography API is running",
		"version": Version,
	})
}

func (h *StegoHandler) Capacity(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	data, name, err := readFormFile(c, "carrier_file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	report, err := h.service.Capacity(c.Request.Context(), data, name)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, models.CapacityResponse{
		Success:         true,
		Carrier:         report.Carrier,
		CapacityBits:    report.CapacityBits,
		MaxMessageBytes: report.MaxMessageBytes,
	})
}

func (h *StegoHandler) ConcealMessage(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	carrierData, carrierName, err := readFormFile(c, "carrier_file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	var message []byte
	if _, ok := c.Request.MultipartForm.File["secret_file"]; ok {
		message, _, err = readFormFile(c, "secret_file")
		if err != nil {
			h.fail(c, http.StatusBadRequest, err)
			return
		}
	} else if text, ok := c.GetPostForm("message"); ok {
		message = []byte(text)
	} else {
		h.fail(c, http.StatusBadRequest, errMissingMessage)
		return
	}

	res, err := h.service.Conceal(c.Request.Context(), carrierData, carrierName, message)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment(res.OutputName))
	c.Header("X-Stego-Capacity", strconv.Itoa(res.CapacityBits))
	c.Header("X-Stego-PSNR", formatPSNR(res.PSNR))
	c.Header("X-Stego-Low-Quality", strconv.FormatBool(res.LowQuality))
	c.Header("X-Stego-Digest", res.Digest)
	c.Header("X-Stego-Format", res.Carrier.Format)

	c.Data(http.StatusOK, res.ContentType, res.Output)
}

func (h *StegoHandler) RevealMessage(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	data, name, err := readFormFile(c, "stego_file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	text := c.PostForm("text") == "true"

	res, err := h.service.Reveal(c.Request.Context(), data, name, text)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}

	contentType := "application/octet-stream"
	if text {
		contentType = "text/plain; charset=utf-8"
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment("secret.bin"))
	c.Header("X-Stego-Digest", res.Digest)
	c.Header("X-Stego-Format", res.Carrier.Format)

	c.Data(http.StatusOK, contentType, res.Message)
}

// parseForm bounds the request body and parses the multipart form. It writes
// the error response itself and reports whether the handler may continue.
func (h *StegoHandler) parseForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(c, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", h.maxUploadBytes))
			return false
		}
		h.fail(c, http.StatusBadRequest, fmt.Errorf("failed to parse form: %w", err))
		return false
	}
	return true
}

func readFormFile(c *gin.Context, field string) ([]byte, string, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%s is required", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", field, err)
	}
	return data, header.Filename, nil
}

func (h *StegoHandler) fail(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Success:   false,
		Message:   err.Error(),
		Kind:      errorKind(err),
		RequestID: requestID(c),
	})
}

func statusFor(err error) int {
	var (
		capErr   *stego.CapacityError
		frameErr *stego.FramingError
		unsupErr *stego.UnsupportedCarrierError
	)
	switch {
	case errors.As(err, &capErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &frameErr), errors.Is(err, service.ErrNotUTF8):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unsupErr):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrInvalidCarrier):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	var (
		capErr   *stego.CapacityError
		frameErr *stego.FramingError
		unsupErr *stego.UnsupportedCarrierError
	)
	switch {
	case errors.As(err, &capErr):
		return "capacity"
	case errors.As(err, &frameErr):
		return "framing"
	case errors.As(err, &unsupErr):
		return "unsupported_carrier"
	case errors.Is(err, service.ErrNotUTF8):
		return "encoding"
	default:
		return ""
	}
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return strconv.FormatFloat(psnr, 'f', 2, 64)
}
