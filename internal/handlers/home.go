package handlers

import "sribalafashion.in/web/internal/api"

// HomeView is the per-page payload for the landing page.
type HomeView struct {
	Featured []api.Product
}
