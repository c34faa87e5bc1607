// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds sitemap.xml, robots.txt and page meta tags.
package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// SitemapPath is where the sitemap is served.
const SitemapPath = "/sitemap.xml"

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// urlset is the sitemap document.
type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []location `xml:"url"`
}

type location struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Entry is a document listed in the sitemap.
type Entry struct {
	Slug      string
	UpdatedAt time.Time
}

// Collection describes where a kind of document lives and how crawlers
// should treat it.
type Collection struct {
	Prefix     string // URL path before the slug, "/" for root pages
	ChangeFreq string
	Priority   string
}

// The site's collections.
var (
	Updates = Collection{Prefix: "/updates/", ChangeFreq: "weekly", Priority: "0.7"}
	Events  = Collection{Prefix: "/events/", ChangeFreq: "weekly", Priority: "0.6"}
	Albums  = Collection{Prefix: "/gallery/", ChangeFreq: "monthly", Priority: "0.6"}
	Pages   = Collection{Prefix: "/", ChangeFreq: "weekly", Priority: "0.8"}
)

// Sections are the fixed listing pages of the site.
var Sections = []string{"/updates", "/events", "/gallery", "/visitor-guide", "/about"}

// SitemapBuilder collects site URLs. A location is only listed once, so a
// page whose slug matches a section is not repeated.
type SitemapBuilder struct {
	base string
	urls []location
	seen map[string]struct{}
}

// NewSitemapBuilder returns a builder for the site at siteURL.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		base: strings.TrimRight(siteURL, "/"),
		seen: make(map[string]struct{}),
	}
}

func (b *SitemapBuilder) add(path, freq, priority string, updatedAt time.Time) {
	loc := b.base + path
	if _, dup := b.seen[loc]; dup {
		return
	}
	b.seen[loc] = struct{}{}

	l := location{Loc: loc, ChangeFreq: freq, Priority: priority}
	if !updatedAt.IsZero() {
		l.LastMod = updatedAt.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, l)
}

// AddHomepage adds the homepage and the section pages.
func (b *SitemapBuilder) AddHomepage() {
	b.add("/", "daily", "1.0", time.Time{})
	for _, s := range Sections {
		b.add(s, "daily", "0.9", time.Time{})
	}
}

// Add lists entries under collection c.
func (b *SitemapBuilder) Add(c Collection, entries []Entry) {
	for _, e := range entries {
		b.add(c.Prefix+e.Slug, c.ChangeFreq, c.Priority, e.UpdatedAt)
	}
}

// Len returns the number of URLs added so far.
func (b *SitemapBuilder) Len() int {
	return len(b.urls)
}

// Build renders the sitemap XML with its header.
func (b *SitemapBuilder) Build() ([]byte, error) {
	body, err := xml.MarshalIndent(urlset{XMLNS: XMLNamespace, URLs: b.urls}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
