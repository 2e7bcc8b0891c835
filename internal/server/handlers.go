package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-splitter/internal/model"
	"github.com/ytget/yt-splitter/internal/store"
)

// Query parameters
const (
	ParamURL         = "url"
	ParamResolution  = "resolution"
	ParamOrientation = "orientation"
	ParamToken       = "token"
)

// SegmentPath is the same-origin path that serves finished segments
const SegmentPath = "/segment"

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// urlRequest is the body of /fetch and /playlist
type urlRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	module := ""
	if s.extractor != nil {
		module = s.extractor.Module()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "module": module})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	target, err := decodeURLRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	meta, err := s.extractor.FetchMetadata(r.Context(), target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	if s.playlists == nil {
		writeError(w, model.Errorf(model.KindNotFound, "playlist", "playlist listing is disabled"))
		return
	}
	target, err := decodeURLRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	playlist, err := s.playlists.ParsePlaylist(r.Context(), target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	target, quality, err := mediaParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.acquire(r); err != nil {
		writeError(w, err)
		return
	}
	defer s.release()

	media, err := s.extractor.FetchAndMux(r.Context(), target, quality)
	if err != nil {
		writeError(w, err)
		return
	}
	defer s.cleanup(media)

	if err := s.streamFile(w, media.Path); err != nil {
		s.log.WithError(err).WithField("file", media.Path).Warn("download stream interrupted")
	}
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	target, quality, err := mediaParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	orientation, err := model.ParseOrientation(r.URL.Query().Get(ParamOrientation))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.acquire(r); err != nil {
		writeError(w, err)
		return
	}
	defer s.release()

	media, err := s.extractor.FetchAndMux(r.Context(), target, quality)
	if err != nil {
		writeError(w, err)
		return
	}
	defer s.cleanup(media)

	segments, err := s.splitter.Split(r.Context(), media, orientation)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]model.SplitItem, 0, len(segments))
	for _, seg := range segments {
		item := model.SplitItem{Name: seg.Name, Start: seg.Start, End: seg.End, Status: seg.Status, Error: seg.Error}
		if seg.Status.IsSuccessful() {
			token, err := s.publish(r, seg)
			if err != nil {
				item.Status = model.SegmentStatusFailed
				item.Error = err.Error()
			} else {
				item.URL = SegmentURL(token)
			}
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

// publish registers a finished segment and returns its token
func (s *Server) publish(r *http.Request, seg model.Segment) (string, error) {
	entry := store.Entry{
		Token:     store.NewToken(),
		Name:      seg.Name,
		Path:      seg.Path,
		CreatedAt: time.Now(),
	}
	if err := s.index.Put(r.Context(), entry); err != nil {
		s.log.WithError(err).WithField("segment", seg.Name).Error("failed to index segment")
		return "", fmt.Errorf("index segment: %w", err)
	}
	return entry.Token, nil
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	const op = "segment"
	token := r.URL.Query().Get(ParamToken)
	if token == "" {
		writeError(w, model.Errorf(model.KindNotFound, op, "segment not found"))
		return
	}

	entry, err := s.index.Get(r.Context(), token)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, model.NewError(model.KindNotFound, op, err))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.streamFile(w, entry.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, model.Errorf(model.KindNotFound, op, "segment file is gone"))
			return
		}
		s.log.WithError(err).WithField("segment", entry.Name).Warn("segment stream interrupted")
	}
}

// streamFile writes path as an MP4 attachment with a Content-Length header
// in fixed-size chunks. Errors before the header is sent leave the response
// untouched.
func (s *Server) streamFile(w http.ResponseWriter, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	h := w.Header()
	h.Set("Content-Type", "video/mp4")
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, ChunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return fmt.Errorf("client write: %w", err)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(path), readErr)
		}
	}
}

// cleanup removes the request's scratch directory
func (s *Server) cleanup(media *model.MediaFile) {
	if err := media.Cleanup(); err != nil {
		s.log.WithError(err).WithField("dir", media.ScopeDir).Warn("failed to remove scope directory")
		return
	}
	s.log.WithFields(logrus.Fields{"dir": media.ScopeDir}).Debug("scope directory removed")
}

// decodeURLRequest reads {"url": ...} from the request body
func decodeURLRequest(r *http.Request) (string, error) {
	const op = "decode request"
	var req urlRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return "", model.Errorf(model.KindInvalidResource, op, "invalid JSON body: %v", err)
	}
	if req.URL == "" {
		return "", model.Errorf(model.KindInvalidResource, op, "url is required")
	}
	return req.URL, nil
}

// mediaParams reads the url and resolution query parameters
func mediaParams(r *http.Request) (string, string, error) {
	const op = "parse query"
	q := r.URL.Query()
	target, quality := q.Get(ParamURL), q.Get(ParamResolution)
	if target == "" {
		return "", "", model.Errorf(model.KindInvalidResource, op, "url is required")
	}
	if quality == "" {
		return "", "", model.Errorf(model.KindInvalidResource, op, "resolution is required")
	}
	return target, quality, nil
}

// SegmentURL returns the relative link for a segment token
func SegmentURL(token string) string {
	return SegmentPath + "?" + ParamToken + "=" + url.QueryEscape(token)
}
