package service

import (
	"regexp"
	"strings"
)

var (
	slugStripPattern     = regexp.MustCompile(`[^\w\s-]`)
	slugSeparatorPattern = regexp.MustCompile(`[\s_-]+`)
)

// Slugify 从标题推导 URL 安全的 slug：小写、去掉特殊字符、
// 把空白/下划线/连字符的连续段折叠成单个连字符
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStripPattern.ReplaceAllString(slug, "")
	slug = slugSeparatorPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
