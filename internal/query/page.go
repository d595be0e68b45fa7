// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package query

import (
	"strconv"

	"readlog/internal/models"
)

// DefaultPageSize is the number of reviews shown per listing page.
const DefaultPageSize = 10

// Page locates one fixed-size window over a full ordered result.
// Start and End are slice bounds into that result.
type Page struct {
	Number     int `json:"page"`
	Size       int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
	Start      int `json:"-"`
	End        int `json:"-"`
}

// Paginate computes page number (1-based) of total items. There is always
// at least one page, so page 1 of an empty result is valid and empty. Any
// page outside [1, TotalPages] yields a NotFoundError.
func Paginate(total, number, size int) (Page, error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 || number > pages {
		return Page{}, &models.NotFoundError{Resource: "page", ID: strconv.Itoa(number)}
	}

	start := (number - 1) * size
	end := min(start+size, total)
	return Page{Number: number, Size: size, TotalPages: pages, Total: total, Start: start, End: end}, nil
}

// Slice returns the items that fall on page p.
func Slice[T any](items []T, p Page) []T {
	if p.Start >= len(items) {
		return []T{}
	}
	return items[p.Start:min(p.End, len(items))]
}
