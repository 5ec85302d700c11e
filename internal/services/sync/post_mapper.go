package sync

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/infra/blogger"
)

const publishedLabel = "published"

var (
	anchorPattern = regexp.MustCompile(`(?is)<a[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	imagePattern  = regexp.MustCompile(`(?is)<img[^>]+src="([^"]+)"`)
	tagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	sizePattern   = regexp.MustCompile(`(?i)\(\s*([\d.]+)\s*(GB|MB)\s*\)`)
	yearLabel     = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// mapPost turns a blog post into a movie. The blog is the CMS: the post
// title is the movie title, anchors in the body are download links with the
// anchor text as the quality tag, the first image is the poster, and the
// "published" label gates visibility.
func mapPost(post blogger.Post) (model.Movie, bool) {
	title := strings.TrimSpace(post.Title)
	if post.ID == "" || title == "" {
		return model.Movie{}, false
	}

	movie := model.Movie{
		Title:        title,
		SourcePostID: post.ID,
		Links:        extractLinks(post.Content),
		Description:  extractDescription(post.Content),
	}

	if m := imagePattern.FindStringSubmatch(post.Content); m != nil {
		movie.PosterURL = m[1]
	}

	for _, label := range post.Labels {
		label = strings.TrimSpace(label)
		switch {
		case strings.EqualFold(label, publishedLabel):
			movie.Published = true
		case yearLabel.MatchString(label):
			if year, err := strconv.Atoi(label); err == nil {
				movie.Year = year
			}
		default:
			if label != "" {
				movie.Labels = append(movie.Labels, label)
			}
		}
	}

	return movie, true
}

func extractLinks(content string) []model.DownloadLink {
	matches := anchorPattern.FindAllStringSubmatch(content, -1)
	links := make([]model.DownloadLink, 0, len(matches))

	for _, m := range matches {
		href := strings.TrimSpace(m[1])
		text := strings.TrimSpace(tagPattern.ReplaceAllString(m[2], ""))
		if href == "" || text == "" {
			continue
		}

		link := model.DownloadLink{URL: href, Quality: text}
		if sm := sizePattern.FindStringSubmatch(text); sm != nil {
			link.Quality = strings.TrimSpace(sizePattern.ReplaceAllString(text, ""))
			if size, err := strconv.ParseFloat(sm[1], 64); err == nil {
				if strings.EqualFold(sm[2], "GB") {
					size *= 1024
				}
				link.SizeMB = int(size)
			}
		}
		links = append(links, link)
	}

	if len(links) == 0 {
		return nil
	}
	return links
}

func extractDescription(content string) string {
	// Everything before the first link block reads as the synopsis.
	if idx := anchorPattern.FindStringIndex(content); idx != nil {
		content = content[:idx[0]]
	}
	text := strings.TrimSpace(tagPattern.ReplaceAllString(content, " "))
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 1000 {
		text = text[:1000]
	}
	return text
}
