package api

import (
	"net/url"
	"strconv"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

// Page describes one window of a list response.
type Page struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// pageParams reads 1-based page and per_page. Bad values fall back to defaults.
func pageParams(q url.Values) (page, perPage int) {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err = strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// paginate cuts items to the requested page.
func paginate[T any](items []T, page, perPage int) ([]T, Page) {
	total := len(items)
	meta := Page{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}

	startIdx := (page - 1) * perPage
	if startIdx >= total {
		return []T{}, meta
	}
	endIdx := startIdx + perPage
	if endIdx > total {
		endIdx = total
	}
	return items[startIdx:endIdx], meta
}
