// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Page sizes.
const (
	// PublicUpdatesPerPage is the page size of the public updates list.
	PublicUpdatesPerPage = 12
	// AdminPerPage is the page size of every admin list.
	AdminPerPage = 20
)

// paginationWindow is the number of numbered links around the current page.
const paginationWindow = 5

// AdminPagination is the pager under admin lists.
type AdminPagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	Pages       []AdminPaginationPage
	BaseURL     string
	// QueryString holds the list filters, without page.
	QueryString string
}

// AdminPaginationPage is one numbered link, or a gap when IsEllipsis.
type AdminPaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildAdminPagination builds the pager for page currentPage of a list at
// baseURL. Non-empty query parameters other than page are carried over.
func BuildAdminPagination(currentPage, totalItems, perPage int, baseURL string, query url.Values) AdminPagination {
	p := AdminPagination{
		TotalPages: totalPages(totalItems, perPage),
		TotalItems: int64(totalItems),
		PerPage:    perPage,
		BaseURL:    baseURL,
	}
	p.CurrentPage = clampPage(currentPage, p.TotalPages)

	filters := url.Values{}
	for k, v := range query {
		if k != "page" && len(v) > 0 && v[0] != "" {
			filters[k] = v
		}
	}
	p.QueryString = filters.Encode()

	first, last := pageWindow(p.CurrentPage, p.TotalPages)
	if first > 1 {
		p.Pages = append(p.Pages, p.link(1))
		if first > 2 {
			p.Pages = append(p.Pages, AdminPaginationPage{IsEllipsis: true})
		}
	}
	for n := first; n <= last; n++ {
		p.Pages = append(p.Pages, p.link(n))
	}
	if last < p.TotalPages {
		if last < p.TotalPages-1 {
			p.Pages = append(p.Pages, AdminPaginationPage{IsEllipsis: true})
		}
		p.Pages = append(p.Pages, p.link(p.TotalPages))
	}
	return p
}

func (p AdminPagination) link(n int) AdminPaginationPage {
	return AdminPaginationPage{Number: n, URL: p.PageURL(n), IsCurrent: n == p.CurrentPage}
}

// pageWindow returns the first and last numbered link around current.
func pageWindow(current, total int) (int, int) {
	first := max(current-paginationWindow/2, 1)
	last := min(first+paginationWindow-1, total)
	first = max(last-paginationWindow+1, 1)
	return first, last
}

// PageURL returns the list URL for page n with the filters kept.
func (p AdminPagination) PageURL(n int) string {
	q := p.QueryString
	if q != "" {
		q += "&"
	}
	return p.BaseURL + "?" + q + "page=" + strconv.Itoa(n)
}

// ShouldShow reports whether there is more than one page.
func (p AdminPagination) ShouldShow() bool { return p.TotalPages > 1 }

// HasPrev reports whether a previous page exists.
func (p AdminPagination) HasPrev() bool { return p.CurrentPage > 1 }

// HasNext reports whether a next page exists.
func (p AdminPagination) HasNext() bool { return p.CurrentPage < p.TotalPages }

// PrevPage is the previous page number.
func (p AdminPagination) PrevPage() int { return p.CurrentPage - 1 }

// NextPage is the next page number.
func (p AdminPagination) NextPage() int { return p.CurrentPage + 1 }

// totalPages is never below 1, so an empty list still has page 1.
func totalPages(totalItems, perPage int) int {
	if perPage <= 0 || totalItems <= 0 {
		return 1
	}
	return (totalItems + perPage - 1) / perPage
}

func clampPage(page, total int) int {
	return min(max(page, 1), total)
}

// NormalizePagination clamps page for a list of totalItems and returns it
// with the page count.
func NormalizePagination(page, totalItems, perPage int) (int, int) {
	total := totalPages(totalItems, perPage)
	return clampPage(page, total), total
}

// ParsePageParam reads ?page=N. Missing, malformed and non-positive values
// give 1.
func ParsePageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseIDParam parses the {id} URL parameter.
func ParseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
