package api

import (
	"net/http"

	"github.com/dalemusser/urlkit/httputil"
	"github.com/dalemusser/urlkit/urlhandle"
)

// dropParam names the control parameter of GET /v1/current.
const dropParam = "drop"

// CurrentResponse is the body answered by GET /v1/current.
type CurrentResponse struct {
	URL    string      `json:"url"`
	Params [][2]string `json:"params"`
	Clean  string      `json:"clean"`
}

// current describes the request's own URL. Every value of the repeatable
// "drop" parameter names a parameter to remove first; "drop" itself is
// always removed.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) error {
	opts := append(h.handleOptions(r), urlhandle.WithLocation(urlhandle.RequestLocation(r)))
	hd, err := urlhandle.New("", opts...)
	if err != nil {
		return err
	}

	drop := hd.GetAll(dropParam)
	hd.Remove(append(drop, dropParam)...)

	params := hd.Params()
	pairs := make([][2]string, len(params))
	for i, p := range params {
		pairs[i] = [2]string{p.Name, p.Value}
	}

	httputil.WriteJSON(w, http.StatusOK, CurrentResponse{
		URL:    hd.Value(),
		Params: pairs,
		Clean:  hd.Clone().Clean().Value(),
	})
	return nil
}
