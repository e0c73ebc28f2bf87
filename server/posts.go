package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	nb "github.com/panyam/nodebird"
	"github.com/panyam/nodebird/uploads"
)

func (a *App) handleUploadImage(w http.ResponseWriter, r *http.Request) error {
	if a.uploads == nil {
		return nb.NotFound()
	}
	r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxImageSize+1<<20)
	file, header, err := r.FormFile("img")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return &nb.HTTPError{Status: http.StatusRequestEntityTooLarge, Message: uploads.ErrTooLarge.Error(), Err: err}
		}
		return &nb.HTTPError{Status: http.StatusBadRequest, Message: "an img file is required", Err: err}
	}
	defer file.Close()

	img, err := uploads.ReadImage(file, header.Filename)
	switch {
	case errors.Is(err, uploads.ErrNotImage):
		return &nb.HTTPError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	case errors.Is(err, uploads.ErrTooLarge):
		return &nb.HTTPError{Status: http.StatusRequestEntityTooLarge, Message: err.Error(), Err: err}
	case err != nil:
		return err
	}

	url, err := uploads.SaveImage(r.Context(), a.uploads, img)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func (a *App) handleCreatePost(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user := nb.CurrentUser(r)
	post, err := nb.NewPost(user.ID, r.FormValue("content"), r.FormValue("url"))
	if errors.Is(err, nb.ErrInvalidPost) {
		a.sessions.Flash(ctx, flashPostError, err.Error())
		http.Redirect(w, r, "/", http.StatusFound)
		return nil
	}
	if err != nil {
		return err
	}
	if err := a.posts.CreatePost(ctx, post); err != nil {
		return err
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

func (a *App) handleDeletePost(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	post, err := a.posts.GetPost(ctx, mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	if post.UserID != nb.CurrentUser(r).ID {
		return nb.NewHTTPError(http.StatusForbidden, "Forbidden")
	}
	if err := a.posts.DeletePost(ctx, post.ID); err != nil {
		return err
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}
