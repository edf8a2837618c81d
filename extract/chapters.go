package extract

import (
	"regexp"
	"strconv"
)

// ChapterCount infers how many chapters a design document plans. The rules
// form a strict priority chain:
//
//  1. distinct numbers in "Chapter N:" headings;
//  2. distinct numbers in "N." items anywhere in the text;
//  3. the last "N chapters" statement in the text.
//
// ok is false when no rule produced a positive count; the returned count is
// then DefaultChapterCount.
func ChapterCount(design string) (n int, ok bool) {
	if n := distinctMatches(chapterHeadingRe, design); n > 0 {
		return n, true
	}
	if n := distinctMatches(numberedItemRe, design); n > 0 {
		return n, true
	}
	if n := lastMatch(chapterTotalRe, design); n > 0 {
		return n, true
	}
	return DefaultChapterCount, false
}

func distinctMatches(re *regexp.Regexp, text string) int {
	seen := make(map[int]struct{})
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}

func lastMatch(re *regexp.Regexp, text string) int {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0
	}
	v, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0
	}
	return v
}
