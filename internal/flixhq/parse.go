package flixhq

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nautilus-cli/nautilus/internal/models"
)

var (
	trailingID = regexp.MustCompile(`-(\d+)$`)
	watchRefID = regexp.MustCompile(`-(\d+)\.(\d+)(?:\?|$)`)
)

func parseSearchResults(doc *goquery.Document, baseURL string) []models.Media {
	var media []models.Media

	doc.Find(".flw-item").Each(func(i int, s *goquery.Selection) {
		if m, ok := parseMediaItem(s, baseURL); ok {
			media = append(media, m)
		}
	})

	return media
}

func parseMediaItem(s *goquery.Selection, baseURL string) (models.Media, bool) {
	link := s.Find(".film-name a, .film-detail a").First()
	href, exists := link.Attr("href")
	if !exists {
		return models.Media{}, false
	}

	title := strings.TrimSpace(link.Text())
	if title == "" {
		title, _ = link.Attr("title")
	}
	if title == "" {
		return models.Media{}, false
	}

	var mediaType models.MediaType
	switch {
	case strings.Contains(href, "/tv/"):
		mediaType = models.MediaTypeTV
	case strings.Contains(href, "/movie/"):
		mediaType = models.MediaTypeMovie
	default:
		return models.Media{}, false
	}

	matches := trailingID.FindStringSubmatch(href)
	if len(matches) < 2 {
		return models.Media{}, false
	}

	year := ""
	s.Find(".fdi-item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		year = strings.TrimSpace(item.Text())
		return false
	})

	return models.Media{
		ID:    matches[1],
		Title: title,
		Type:  mediaType,
		Year:  year,
		URL:   resolveURL(baseURL, href),
	}, true
}

func parseSeasons(doc *goquery.Document) []models.Season {
	var seasons []models.Season
	number := 1

	doc.Find(".dropdown-item, a[data-id]").Each(func(i int, s *goquery.Selection) {
		dataID, _ := s.Attr("data-id")
		if dataID == "" {
			return
		}
		title := strings.TrimSpace(s.Text())
		if title == "" {
			return
		}
		seasons = append(seasons, models.Season{
			ID:     dataID,
			Number: number,
			Title:  title,
		})
		number++
	})

	return seasons
}

func parseEpisodes(doc *goquery.Document, seasonID string) []models.Episode {
	var episodes []models.Episode
	number := 1

	doc.Find(".nav-item a").Each(func(i int, s *goquery.Selection) {
		dataID, exists := s.Attr("data-id")
		if !exists || dataID == "" {
			return
		}
		title, _ := s.Attr("title")
		if title == "" {
			title = strings.TrimSpace(s.Text())
		}
		episodes = append(episodes, models.Episode{
			DataID:   dataID,
			Number:   number,
			Title:    title,
			SeasonID: seasonID,
		})
		number++
	})

	return episodes
}

func parseEpisodeServers(doc *goquery.Document) []models.Server {
	var servers []models.Server

	doc.Find("a[data-id][title]").Each(func(i int, s *goquery.Selection) {
		dataID, _ := s.Attr("data-id")
		title, _ := s.Attr("title")
		name := providerName(title)
		if dataID == "" || name == "" {
			return
		}
		servers = append(servers, models.Server{
			Provider: name,
			ID:       dataID,
		})
	})

	return servers
}

// parseMovieServers reads the movie watch page, where the server id hides
// in the second number of hrefs like /watch-movie-name-123.456.
func parseMovieServers(doc *goquery.Document) []models.Server {
	var servers []models.Server

	doc.Find("a[title]").Each(func(i int, s *goquery.Selection) {
		title, _ := s.Attr("title")
		name := providerName(title)
		if name == "" {
			return
		}
		href, _ := s.Attr("href")
		if href == "" {
			href, _ = s.Attr("data-link")
		}
		matches := watchRefID.FindStringSubmatch(href)
		if len(matches) < 3 {
			return
		}
		servers = append(servers, models.Server{
			Provider: name,
			ID:       matches[2],
		})
	})

	return servers
}

// providerName normalizes the title attribute of a server link. The site
// labels them "Server UpCloud"; configuration matches the bare name.
func providerName(title string) string {
	name := strings.TrimSpace(title)
	name = strings.TrimSpace(strings.TrimPrefix(name, "Server "))
	return name
}

func resolveURL(baseURL, ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return baseURL + ref
	}
	return baseURL + "/" + ref
}

func isChallengePage(doc *goquery.Document) bool {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	if strings.Contains(title, "just a moment") {
		return true
	}
	return doc.Find("#cf-wrapper").Length() > 0 || doc.Find("#challenge-form").Length() > 0
}
