// Package scrape extracts coupon image URLs from source pages.
//
// Retailer pages embed image URLs in markup and in inline JSON, often with
// JavaScript escapes ("\/", "\u002F") or HTML entities. ExtractURLs searches
// the unescaped page text and the decoded values of image-bearing attributes,
// rewrites and resolves each match, and drops duplicates.
package scrape
