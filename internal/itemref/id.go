// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package itemref

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// iconBaseURL is the public render service for item icons.
const iconBaseURL = "https://render.albiononline.com/v1/item/"

// canonicalIDRe matches canonical item IDs: a tier prefix, one or more
// underscore-joined segments, and an optional @enchantment suffix.
// Examples: T4_BAG, T8_2H_BOW@3, t6_leather (normalized to upper case).
var canonicalIDRe = regexp.MustCompile(`(?i)\bT[1-8](?:_[A-Za-z0-9]+)+(?:@\d+)?\b`)

// tierPrefixRe extracts the tier digit from a canonical ID.
var tierPrefixRe = regexp.MustCompile(`^T([1-8])_`)

// IsCanonicalID reports whether s is exactly one canonical item ID.
func IsCanonicalID(s string) bool {
	m := canonicalIDRe.FindString(s)
	return m != "" && len(m) == len(s)
}

// NormalizeID upper-cases a canonical ID token as the backend expects.
func NormalizeID(id string) string {
	return strings.ToUpper(id)
}

// ParseTier extracts the tier from an ID's lexical structure (T4_... -> 4).
// Returns 0 when the ID carries no tier prefix.
func ParseTier(id string) int {
	m := tierPrefixRe.FindStringSubmatch(NormalizeID(id))
	if m == nil {
		return 0
	}
	tier, _ := strconv.Atoi(m[1])
	return tier
}

// ParseEnchantment extracts the @n suffix from an ID. Returns 0 when absent
// or malformed.
func ParseEnchantment(id string) int {
	at := strings.LastIndex(id, "@")
	if at < 0 {
		return 0
	}
	n, err := strconv.Atoi(id[at+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// IconURL returns the render-service URL for an item's icon.
func IconURL(id string) string {
	return iconBaseURL + url.QueryEscape(NormalizeID(id)) + ".png"
}

// TierSuffix formats the parenthesized tier/enchantment suffix shown after
// a resolved label: "(T4)" or "(T6.2)". Returns the empty string when no
// tier was determined.
func TierSuffix(tier, enchantment int) string {
	if tier <= 0 {
		return ""
	}
	if enchantment > 0 {
		return "(T" + strconv.Itoa(tier) + "." + strconv.Itoa(enchantment) + ")"
	}
	return "(T" + strconv.Itoa(tier) + ")"
}
