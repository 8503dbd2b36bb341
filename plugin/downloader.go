package plugin

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Installed plugins come from GitHub releases. A release tagged with the
// plugin version carries one scout-plugin_<os>_<arch>.tar.gz per platform
// plus a checksums.txt, and each archive holds a single executable named
// "plugin".

const (
	archivePrefix = "scout-plugin"
	checksumAsset = "checksums.txt"
	binaryName    = "plugin"
)

var releaseHTTP = &http.Client{Timeout: 2 * time.Minute}

// DownloadPlugin fetches the release asset for the running platform from the
// plugin's GitHub source, verifies it against checksums.txt and installs the
// contained binary into destDir.
func DownloadPlugin(source, version, destDir string) error {
	owner, repo, err := splitGitHubSource(source)
	if err != nil {
		return err
	}

	asset := fmt.Sprintf("%s_%s_%s.tar.gz", archivePrefix, runtime.GOOS, runtime.GOARCH)
	base := fmt.Sprintf("https://github.com/%s/%s/releases/download/%s", owner, repo, version)

	want, err := releaseChecksum(base+"/"+checksumAsset, asset)
	if err != nil {
		return fmt.Errorf("fetch checksum: %w", err)
	}

	archive, got, err := fetchAsset(base + "/" + asset)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", asset, err)
	}
	defer os.Remove(archive)

	if got != want {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", asset, got, want)
	}

	return installBinary(archive, destDir)
}

// splitGitHubSource accepts "github.com/<owner>/<repo>" with or without the
// https scheme.
func splitGitHubSource(source string) (string, string, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(source, "https://"), "github.com/")
	owner, repo, ok := strings.Cut(trimmed, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("plugin source must be github.com/<owner>/<repo>, got %q", source)
	}
	return owner, repo, nil
}

// releaseChecksum pulls checksums.txt and returns the SHA256 recorded for asset
func releaseChecksum(url, asset string) (string, error) {
	resp, err := releaseHTTP.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(body), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == asset {
			return fields[0], nil
		}
	}
	return "", fmt.Errorf("no checksum entry for %s", asset)
}

// fetchAsset downloads url to a temp file, hashing the stream in the same pass
func fetchAsset(url string) (string, string, error) {
	resp, err := releaseHTTP.Get(url)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "scout-plugin-*.tar.gz")
	if err != nil {
		return "", "", err
	}
	defer tmp.Close()

	h := sha256.New()
	if _, err := io.Copy(tmp, io.TeeReader(resp.Body, h)); err != nil {
		os.Remove(tmp.Name())
		return "", "", err
	}
	return tmp.Name(), hex.EncodeToString(h.Sum(nil)), nil
}

// installBinary extracts the plugin executable from the archive into destDir
func installBinary(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("archive has no %q binary", binaryName)
		}
		if err != nil {
			return err
		}
		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != binaryName {
			continue
		}

		if err := os.MkdirAll(destDir, 0755); err != nil {
			return err
		}
		out, err := os.OpenFile(filepath.Join(destDir, binaryName), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
}
