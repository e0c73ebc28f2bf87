package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	nb "github.com/panyam/nodebird"
)

func (a *App) handleFollow(w http.ResponseWriter, r *http.Request) error {
	return a.changeFollow(w, r, a.users.Follow)
}

func (a *App) handleUnfollow(w http.ResponseWriter, r *http.Request) error {
	return a.changeFollow(w, r, a.users.Unfollow)
}

func (a *App) changeFollow(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, followerID, followingID string) error) error {
	ctx := r.Context()
	me := nb.CurrentUser(r)
	targetID := mux.Vars(r)["id"]
	if targetID == me.ID {
		return nb.NewHTTPError(http.StatusBadRequest, "you cannot follow yourself")
	}
	if _, err := a.users.GetUserByID(ctx, targetID); err != nil {
		return err
	}
	if err := change(ctx, me.ID, targetID); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err := w.Write([]byte("success"))
	return err
}
