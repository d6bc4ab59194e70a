// Package spotify is a minimal Spotify Web API client used to pull album
// cover art out of a playlist. It covers exactly what the mosaic needs:
// a client-credentials token, playlist track paging, and image download.
package spotify

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	tokenURL = "https://accounts.spotify.com/api/token"
	apiBase  = "https://api.spotify.com/v1"
)

var playlistIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`spotify\.com/playlist/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`spotify:playlist:([a-zA-Z0-9]+)`),
}

// ExtractPlaylistID pulls the playlist ID out of a share URL or URI, or
// returns the input unchanged if it already looks like a bare ID.
func ExtractPlaylistID(s string) string {
	for _, re := range playlistIDPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return s
}

// Client talks to the Spotify Web API with an app token.
type Client struct {
	http *resty.Client
}

// NewClient obtains a client-credentials token and returns a client ready
// for playlist reads.
func NewClient(clientID, clientSecret string) (*Client, error) {
	c := resty.New()

	resp, err := c.R().
		SetBasicAuth(clientID, clientSecret).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody("grant_type=client_credentials").
		Post(tokenURL)
	if err != nil {
		return nil, fmt.Errorf("request token: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("request token: HTTP %d", resp.StatusCode())
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("no access token in response")
	}

	c.SetAuthToken(result.AccessToken)
	c.SetBaseURL(apiBase)
	return &Client{http: c}, nil
}

// Artwork is one unique album cover referenced by a playlist.
type Artwork struct {
	URL   string
	Album string
}

type tracksPage struct {
	Items []struct {
		Track struct {
			Album struct {
				Name   string `json:"name"`
				Images []struct {
					URL    string `json:"url"`
					Width  int    `json:"width"`
					Height int    `json:"height"`
				} `json:"images"`
			} `json:"album"`
		} `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

// PlaylistArtwork walks the playlist's tracks and collects each distinct
// album image once, largest size first. delay is the pause between pages.
func (c *Client) PlaylistArtwork(playlistID string, delay time.Duration) ([]Artwork, error) {
	seen := make(map[string]bool)
	var art []Artwork

	url := fmt.Sprintf("/playlists/%s/tracks?fields=items(track(album(name,images))),next&limit=100",
		ExtractPlaylistID(playlistID))
	for url != "" {
		var page tracksPage
		resp, err := c.http.R().SetResult(&page).Get(url)
		if err != nil {
			return nil, fmt.Errorf("fetch playlist tracks: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("fetch playlist tracks: HTTP %d", resp.StatusCode())
		}

		for _, item := range page.Items {
			album := item.Track.Album
			if len(album.Images) == 0 {
				continue
			}
			// Spotify lists images largest first.
			u := album.Images[0].URL
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			art = append(art, Artwork{URL: u, Album: album.Name})
		}

		url = page.Next
		if url != "" && delay > 0 {
			time.Sleep(delay)
		}
	}
	return art, nil
}

// Download writes the artwork image into dir, named by a hash of its URL
// so repeat runs are idempotent. It returns the file path and whether the
// file was already present.
func (c *Client) Download(art Artwork, dir string) (string, bool, error) {
	sum := sha1.Sum([]byte(art.URL))
	path := filepath.Join(dir, hex.EncodeToString(sum[:8])+".jpg")
	if _, err := os.Stat(path); err == nil {
		return path, true, nil
	}

	resp, err := c.http.R().Get(art.URL)
	if err != nil {
		return "", false, fmt.Errorf("download %s: %w", art.URL, err)
	}
	if resp.IsError() {
		return "", false, fmt.Errorf("download %s: HTTP %d", art.URL, resp.StatusCode())
	}
	if err := os.WriteFile(path, resp.Body(), 0o644); err != nil {
		return "", false, err
	}
	return path, false, nil
}
