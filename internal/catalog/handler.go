// GreatK Platform | 2026
// handler.go

package catalog

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greatk-dev/greatk-api/internal/config"
	"github.com/greatk-dev/greatk-api/internal/core"
	"github.com/greatk-dev/greatk-api/internal/middleware"
)

type Handler struct {
	service *Service
	upload  config.UploadConfig
}

func NewHandler(service *Service, upload config.UploadConfig) *Handler {
	return &Handler{service: service, upload: upload}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Get("/banners", h.ListBanners)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/videos", h.ListVideos)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/admin/videos", h.UploadVideo)
			r.Delete("/admin/videos/{videoID}", h.DeleteVideo)
			r.Post("/admin/banners/{slot}", h.SetBanner)
		})
	})
}

func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		core.BadRequest(w, "category is required")
		return
	}

	callerID := middleware.GetUserID(r.Context())
	isAdmin := middleware.IsAdmin(r.Context())

	videos, err := h.service.ListVideos(r.Context(), category, callerID, isAdmin)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "unknown category")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, VideosResponse{Videos: ToVideoResponseList(videos)})
}

func (h *Handler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	// Two video files plus a thumbnail, with form-field overhead.
	maxBody := 2*h.upload.MaxVideoSize + h.upload.MaxImageSize + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		core.BadRequest(w, "invalid multipart body")
		return
	}

	category := r.FormValue("category")
	title := r.FormValue("title")
	if category == "" || title == "" {
		core.BadRequest(w, "category and title are required")
		return
	}

	var price *float64
	if raw := r.FormValue("price"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			core.BadRequest(w, "price must be a number")
			return
		}
		price = &parsed
	}

	hindi, err := h.filePart(r, "hindi", h.upload.MaxVideoSize, "video/")
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}
	defer closeFile(hindi)

	english, err := h.filePart(r, "english", h.upload.MaxVideoSize, "video/")
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}
	defer closeFile(english)

	params := UploadVideoParams{
		Category: category,
		Title:    title,
		Price:    price,
		Hindi:    hindi.part,
		English:  english.part,
	}

	thumbnail, err := h.optionalFilePart(r, "thumbnail", h.upload.MaxImageSize, "image/")
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}
	if thumbnail != nil {
		defer closeFile(*thumbnail)
		params.Thumbnail = &thumbnail.part
	}

	video, err := h.service.UploadVideo(r.Context(), params)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, err.Error())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToVideoResponse(video))
}

func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if videoID == "" {
		core.BadRequest(w, "video ID required")
		return
	}

	if err := h.service.DeleteVideo(r.Context(), videoID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "video")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) SetBanner(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		core.BadRequest(w, "slot must be a number")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		core.BadRequest(w, "invalid multipart body")
		return
	}

	file, err := h.filePart(r, "banner", h.upload.MaxImageSize, "image/")
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}
	defer closeFile(file)

	banner, err := h.service.SetBanner(r.Context(), slot, file.part)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "slot must be between 0 and 2")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToBannerResponse(banner))
}

func (h *Handler) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.ListBanners(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, BannersResponse{Banners: ToBannerResponseList(banners)})
}

type uploadedFile struct {
	part   FilePart
	closer multipart.File
}

func closeFile(f uploadedFile) {
	//nolint:errcheck // read-side close
	_ = f.closer.Close()
}

func (h *Handler) filePart(
	r *http.Request,
	field string,
	maxSize int64,
	mimePrefix string,
) (uploadedFile, error) {
	part, err := h.optionalFilePart(r, field, maxSize, mimePrefix)
	if err != nil {
		return uploadedFile{}, err
	}
	if part == nil {
		return uploadedFile{}, errors.New(field + " file is required")
	}
	return *part, nil
}

func (h *Handler) optionalFilePart(
	r *http.Request,
	field string,
	maxSize int64,
	mimePrefix string,
) (*uploadedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.New("could not read " + field + " file")
	}

	if header.Size > maxSize {
		//nolint:errcheck // rejecting the upload
		_ = file.Close()
		return nil, errors.New(field + " file exceeds the size limit")
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, mimePrefix) {
		//nolint:errcheck // rejecting the upload
		_ = file.Close()
		return nil, errors.New(field + " has an unsupported content type")
	}

	return &uploadedFile{
		part: FilePart{
			Reader:      file,
			ContentType: contentType,
			Filename:    header.Filename,
		},
		closer: file,
	}, nil
}
