package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxVariantFormMemory bounds the multipart parts kept in memory; larger files spill to disk
const maxVariantFormMemory = 32 << 20

// formError is a rejected multipart field
type formError struct {
	field   string
	message string
}

func (e *formError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.message)
}

func respondFormError(c *gin.Context, err *formError) {
	respondError(c, http.StatusBadRequest, models.Error{
		Code:    services.CodeValidation,
		Message: err.message,
		Field:   err.field,
	})
}

// openedFiles tracks multipart files to close once the service call returns
type openedFiles []io.Closer

func (o openedFiles) Close() {
	for _, f := range o {
		f.Close()
	}
}

// variantForm is the decoded multipart body of a variant write
type variantForm struct {
	uploads       []models.ImageUpload
	keep          []string
	order         []string
	parentID      *uuid.UUID
	childID       *uuid.UUID
	sellPrice     *decimal.Decimal
	imagesPresent bool
}

// parseVariantForm reads images, attributes, sellPrice, keepImages and imageOrder.
// The returned files must be closed by the caller.
func parseVariantForm(c *gin.Context) (*variantForm, openedFiles, *formError) {
	if err := c.Request.ParseMultipartForm(maxVariantFormMemory); err != nil && err != http.ErrNotMultipart {
		return nil, nil, &formError{field: "images", message: "Invalid multipart form: " + err.Error()}
	}

	form := &variantForm{}
	var files openedFiles

	if mf := c.Request.MultipartForm; mf != nil {
		for _, fh := range mf.File["images"] {
			upload, f, err := openUpload(fh)
			if err != nil {
				files.Close()
				return nil, nil, &formError{field: "images", message: fmt.Sprintf("Could not read image %s", fh.Filename)}
			}
			files = append(files, f)
			form.uploads = append(form.uploads, upload)
		}
	}

	form.keep = nonEmpty(c.PostFormArray("keepImages"))
	form.order = nonEmpty(c.PostFormArray("imageOrder"))
	form.imagesPresent = len(form.uploads) > 0 || len(form.keep) > 0 || len(form.order) > 0

	attrs := nonEmpty(c.PostFormArray("attributes"))
	switch len(attrs) {
	case 0:
	case 2:
		parentID, err := uuid.Parse(attrs[0])
		if err != nil {
			files.Close()
			return nil, nil, &formError{field: "parentAttributeId", message: "Invalid ID format"}
		}
		childID, err := uuid.Parse(attrs[1])
		if err != nil {
			files.Close()
			return nil, nil, &formError{field: "childAttributeId", message: "Invalid ID format"}
		}
		form.parentID, form.childID = &parentID, &childID
	default:
		files.Close()
		return nil, nil, &formError{field: "attributes", message: "Select exactly one parent and one child attribute"}
	}

	if raw := strings.TrimSpace(c.PostForm("sellPrice")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			files.Close()
			return nil, nil, &formError{field: "sellPrice", message: "Sell price must be a number"}
		}
		form.sellPrice = &price
	}

	return form, files, nil
}

func openUpload(fh *multipart.FileHeader) (models.ImageUpload, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return models.ImageUpload{}, nil, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return models.ImageUpload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

// draft builds a create request; every image is a new upload
func (f *variantForm) draft(productID uuid.UUID) services.VariantDraft {
	draft := services.VariantDraft{ProductID: productID}
	for _, upload := range f.uploads {
		draft.Images = append(draft.Images, services.NewImage(upload))
	}
	if f.parentID != nil {
		draft.ParentAttributeID = *f.parentID
		draft.ChildAttributeID = *f.childID
	}
	if f.sellPrice != nil {
		draft.SellPrice = *f.sellPrice
	}
	return draft
}

// payload builds an update. Without imageOrder the kept images come first,
// followed by the uploads in submitted order.
func (f *variantForm) payload() (services.VariantPayload, *formError) {
	p := services.NewVariantPayload()
	if f.parentID != nil {
		p.WithAttributes(*f.parentID, *f.childID)
	}
	if f.sellPrice != nil {
		p.WithSellPrice(*f.sellPrice)
	}
	if !f.imagesPresent {
		return *p, nil
	}

	if len(f.order) == 0 {
		for _, ref := range f.keep {
			p.Keep(ref)
		}
		for _, upload := range f.uploads {
			p.Add(upload)
		}
		return *p, nil
	}

	used := make([]bool, len(f.uploads))
	for _, entry := range f.order {
		kind, value, ok := strings.Cut(entry, ":")
		switch {
		case ok && kind == "keep" && value != "":
			p.Keep(value)
		case ok && kind == "new":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n >= len(f.uploads) {
				return services.VariantPayload{}, &formError{field: "imageOrder", message: fmt.Sprintf("Entry %q does not match an uploaded image", entry)}
			}
			if used[n] {
				return services.VariantPayload{}, &formError{field: "imageOrder", message: fmt.Sprintf("Upload %d is listed more than once", n)}
			}
			used[n] = true
			p.Add(f.uploads[n])
		default:
			return services.VariantPayload{}, &formError{field: "imageOrder", message: fmt.Sprintf("Entry %q must be keep:<ref> or new:<index>", entry)}
		}
	}
	for n, u := range used {
		if !u {
			return services.VariantPayload{}, &formError{field: "imageOrder", message: fmt.Sprintf("Upload %d is missing from imageOrder", n)}
		}
	}
	return *p, nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
