// Package downloader saves resolved streams to disk with yt-dlp, muxing
// subtitle tracks in with ffmpeg when both are available.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lrstanley/go-ytdlp"
	"github.com/pkg/errors"

	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/util"
)

// Options configure one download.
type Options struct {
	// OutputDir defaults to ./downloads under the user's home.
	OutputDir string
	// Filename overrides the name derived from the stream title.
	Filename string
	// Referer is sent to the CDN; HLS hosts reject bare requests.
	Referer string
	// UserAgent decorates direct HTTP fallback requests.
	UserAgent string
}

// Downloader saves streams. One instance is reusable across downloads.
type Downloader struct {
	opts Options
}

func New(opts Options) *Downloader {
	if opts.OutputDir == "" {
		home, _ := os.UserHomeDir()
		opts.OutputDir = filepath.Join(home, "Downloads", "nautilus")
	}
	return &Downloader{opts: opts}
}

// Download saves the stream as an mp4 next to its subtitle tracks and
// returns the final path. The terminal shows a live progress bar.
func (d *Downloader) Download(ctx context.Context, stream models.Stream) (string, error) {
	if err := os.MkdirAll(d.opts.OutputDir, 0o700); err != nil {
		return "", errors.Wrap(err, "creating download directory")
	}

	name := d.opts.Filename
	if name == "" {
		name = SanitizeFilename(stream.Title)
	}
	destPath := filepath.Join(d.opts.OutputDir, name+".mp4")

	if _, err := os.Stat(destPath); err == nil {
		return destPath, errors.Errorf("file already exists: %s", destPath)
	}

	model := newProgressModel()
	program := tea.NewProgram(model)

	errCh := make(chan error, 1)
	go func() {
		err := d.runYtdlp(ctx, stream.URL, destPath, program)
		if err != nil && !isHLS(stream.URL) {
			// Plain file URLs do not need yt-dlp at all.
			err = d.runDirect(ctx, stream.URL, destPath, program)
		}
		program.Send(doneMsg{err: err})
		errCh <- err
	}()

	if _, err := program.Run(); err != nil {
		return "", errors.Wrap(err, "running progress UI")
	}
	if err := <-errCh; err != nil {
		return "", err
	}

	subPaths := d.fetchSubtitles(ctx, stream.Subtitles, name)
	if len(subPaths) > 0 {
		if muxed, err := muxSubtitles(ctx, destPath, subPaths); err != nil {
			util.Warn("subtitle muxing failed, keeping sidecar files", "error", err)
		} else {
			destPath = muxed
		}
	}
	return destPath, nil
}

func (d *Downloader) runYtdlp(ctx context.Context, videoURL, destPath string, program *tea.Program) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return errors.Wrap(err, "installing yt-dlp")
	}

	program.Send(statusMsg("Downloading " + filepath.Base(destPath)))

	// Typed flags land before the URL, which --downloader-args requires.
	dl := ytdlp.New().
		Output(destPath).
		Format("bestvideo+bestaudio/best").
		Downloader("ffmpeg").
		DownloaderArgs("ffmpeg_i:-allowed_extensions ALL").
		ConcurrentFragments(4).
		FragmentRetries("5").
		Retries("5").
		SocketTimeout(30)

	if d.opts.Referer != "" {
		dl.AddHeaders("Referer:" + d.opts.Referer)
	}

	var track progressTracker
	dl.ProgressFunc(200*time.Millisecond, func(update ytdlp.ProgressUpdate) {
		if update.Status == ytdlp.ProgressStatusPostProcessing ||
			update.Status == ytdlp.ProgressStatusFinished {
			return
		}

		received, total := track.account(int64(update.DownloadedBytes), int64(update.TotalBytes))
		program.Send(progressMsg{received: received, total: total})
	})

	if _, err := dl.Run(ctx, videoURL, "--hls-use-mpegts"); err != nil {
		return errors.Wrap(err, "yt-dlp download failed")
	}

	// Report the real on-disk size; the estimate undershoots for HLS.
	if fi, err := os.Stat(destPath); err == nil {
		program.Send(progressMsg{received: fi.Size(), total: fi.Size()})
	}
	return nil
}

func isHLS(rawURL string) bool {
	return strings.Contains(strings.SplitN(rawURL, "?", 2)[0], ".m3u8")
}

// runDirect streams a plain file URL to disk, reporting progress from the
// Content-Length when the server sends one.
func (d *Downloader) runDirect(ctx context.Context, videoURL, destPath string, program *tea.Program) error {
	program.Send(statusMsg("Downloading directly..."))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return err
	}
	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}
	if d.opts.Referer != "" {
		req.Header.Set("Referer", d.opts.Referer)
	}

	resp, err := util.GetSharedClient().Do(req)
	if err != nil {
		return errors.Wrap(err, "direct download")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("direct download: unexpected status %d", resp.StatusCode)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	var received int64
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return werr
			}
			received += int64(n)
			program.Send(progressMsg{received: received, total: resp.ContentLength})
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "direct download")
		}
	}
}

// fetchSubtitles saves each subtitle track next to the video. Failures are
// non-fatal; the video already landed.
func (d *Downloader) fetchSubtitles(ctx context.Context, subs []models.Subtitle, baseName string) []string {
	var paths []string
	for i, sub := range subs {
		path := filepath.Join(d.opts.OutputDir, fmt.Sprintf("%s.%d%s", baseName, i, subtitleExt(sub.URL)))
		if err := d.fetchFile(ctx, sub.URL, path); err != nil {
			util.Warn("subtitle download failed", "url", sub.URL, "error", err)
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func (d *Downloader) fetchFile(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}

	resp, err := util.GetFastClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = io.Copy(file, resp.Body)
	return err
}

// muxSubtitles merges sidecar subtitle files into an mkv container. The
// mp4 and sidecars stay on disk until the mux succeeds.
func muxSubtitles(ctx context.Context, videoPath string, subPaths []string) (string, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", errors.New("ffmpeg not in PATH")
	}

	outPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".mkv"
	args := []string{"-y", "-i", videoPath}
	for _, sub := range subPaths {
		args = append(args, "-i", sub)
	}
	args = append(args, "-map", "0")
	for i := range subPaths {
		args = append(args, "-map", fmt.Sprintf("%d", i+1))
	}
	args = append(args, "-c", "copy", "-c:s", "srt", outPath)

	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errors.Wrapf(err, "ffmpeg mux: %s", string(out))
	}

	_ = os.Remove(videoPath)
	for _, sub := range subPaths {
		_ = os.Remove(sub)
	}
	return outPath, nil
}

func subtitleExt(rawURL string) string {
	ext := filepath.Ext(strings.SplitN(rawURL, "?", 2)[0])
	if ext == "" {
		return ".vtt"
	}
	return ext
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._ -]+`)

// SanitizeFilename reduces a media title to a safe cross-platform file
// name.
func SanitizeFilename(title string) string {
	name := unsafeFilename.ReplaceAllString(title, "")
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return "stream"
	}
	return name
}
