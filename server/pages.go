package server

import (
	"net/http"

	nb "github.com/panyam/nodebird"
)

// page fills in what the layout needs: the logged in user with their follow
// counts, or the OAuth providers for the login form.
func (a *App) page(r *http.Request, title string) (*PageData, error) {
	data := &PageData{Title: title, User: nb.CurrentUser(r)}
	if data.User == nil {
		for _, name := range a.registry.Names() {
			if name != nb.ProviderLocal {
				data.Providers = append(data.Providers, name)
			}
		}
		return data, nil
	}

	ctx := r.Context()
	var err error
	if data.Followings, err = a.users.Followings(ctx, data.User.ID); err != nil {
		return nil, err
	}
	if data.Followers, err = a.users.Followers(ctx, data.User.ID); err != nil {
		return nil, err
	}
	data.FollowingIDs = make(map[string]bool, len(data.Followings))
	for _, u := range data.Followings {
		data.FollowingIDs[u.ID] = true
	}
	return data, nil
}

func (a *App) mainPage(w http.ResponseWriter, r *http.Request) error {
	data, err := a.page(r, "NodeBird")
	if err != nil {
		return err
	}
	if data.Posts, err = a.posts.ListPosts(r.Context(), TimelineLimit); err != nil {
		return err
	}
	data.LoginError = a.sessions.TakeFlash(r.Context(), flashLoginError)
	data.PostError = a.sessions.TakeFlash(r.Context(), flashPostError)
	return a.views.Render(w, http.StatusOK, "main", data)
}

func (a *App) joinPage(w http.ResponseWriter, r *http.Request) error {
	data, err := a.page(r, "Join | NodeBird")
	if err != nil {
		return err
	}
	data.JoinError = a.sessions.TakeFlash(r.Context(), flashJoinError)
	return a.views.Render(w, http.StatusOK, "join", data)
}

func (a *App) profilePage(w http.ResponseWriter, r *http.Request) error {
	data, err := a.page(r, "My profile | NodeBird")
	if err != nil {
		return err
	}
	return a.views.Render(w, http.StatusOK, "profile", data)
}

func (a *App) hashtagPage(w http.ResponseWriter, r *http.Request) error {
	tag := r.URL.Query().Get("hashtag")
	if tag == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return nil
	}
	data, err := a.page(r, tag+" | NodeBird")
	if err != nil {
		return err
	}
	data.Hashtag = tag
	if data.Posts, err = a.posts.ListPostsByHashtag(r.Context(), tag, TimelineLimit); err != nil {
		return err
	}
	return a.views.Render(w, http.StatusOK, "main", data)
}
