package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// githubAPI is the releases endpoint base; tests point it at httptest.
var githubAPI = "https://api.github.com"

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type githubRelease struct {
	TagName    string        `json:"tag_name"`
	Name       string        `json:"name"`
	Draft      bool          `json:"draft"`
	Prerelease bool          `json:"prerelease"`
	Assets     []githubAsset `json:"assets"`
}

// semverRe finds v1.2.3 or 1.2.3 inside tag names such as "xray-v1.2.3".
var semverRe = regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

// pickLatest returns the highest semver among published, non-prerelease
// releases. The asset prefers names mentioning an OS or architecture.
func pickLatest(releases []githubRelease) (*selfupdate.Release, bool) {
	type candidate struct {
		ver      semver.Version
		assetURL string
	}
	var candidates []candidate
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		match := semverRe.FindString(r.TagName)
		if match == "" {
			match = semverRe.FindString(r.Name)
		}
		if match == "" {
			continue
		}
		v, err := semver.Parse(strings.TrimPrefix(match, "v"))
		if err != nil {
			continue
		}
		assetURL := ""
		for _, a := range r.Assets {
			n := strings.ToLower(a.Name)
			if strings.Contains(n, "darwin") || strings.Contains(n, "linux") || strings.Contains(n, "windows") ||
				strings.Contains(n, "amd64") || strings.Contains(n, "arm64") {
				assetURL = a.BrowserDownloadURL
				break
			}
			if assetURL == "" {
				assetURL = a.BrowserDownloadURL
			}
		}
		candidates = append(candidates, candidate{ver: v, assetURL: assetURL})
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ver.GT(candidates[j].ver)
	})
	return &selfupdate.Release{Version: candidates[0].ver, AssetURL: candidates[0].assetURL}, true
}

// detectLatestFallback scans the GitHub releases list directly; it is
// tolerant of tag names selfupdate.DetectLatest does not understand.
func detectLatestFallback(repo string) (*selfupdate.Release, bool, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(fmt.Sprintf("%s/repos/%s/releases", githubAPI, repo))
	if err != nil {
		return nil, false, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed reading github response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(body))
	}

	var releases []githubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, false, fmt.Errorf("failed to decode github releases: %w", err)
	}
	latest, found := pickLatest(releases)
	return latest, found, nil
}

func detectLatest(repo string) (*selfupdate.Release, bool, error) {
	latest, found, err := selfupdate.DetectLatest(repo)
	if err == nil && found {
		return latest, true, nil
	}
	debugf("selfupdate.DetectLatest(%s): found=%v err=%v, scanning releases", repo, found, err)
	return detectLatestFallback(repo)
}

// CheckForUpdates compares Version with the latest release of repo
// ("owner/name") and, after confirmation on in, replaces and restarts the
// running binary.
func CheckForUpdates(repo string, in *bufio.Reader) error {
	fmt.Printf("Current version: %s\n", Version)
	latest, found, err := detectLatest(repo)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if !found || latest == nil {
		fmt.Printf("No releases found for %s.\n", repo)
		return nil
	}
	fmt.Printf("Latest version: %s\n", latest.Version)

	currentVer, parseErr := semver.Parse(strings.TrimPrefix(Version, "v"))
	if parseErr != nil {
		fmt.Printf("warning: could not parse current version %q: %v\n", Version, parseErr)
	} else if latest.Version.LTE(currentVer) {
		fmt.Printf("You are already running the latest version: %s.\n", currentVer)
		return nil
	}

	if latest.AssetURL == "" {
		fmt.Printf("A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		fmt.Printf("Please visit https://github.com/%s/releases to download it.\n", repo)
		return nil
	}

	answer, err := PromptLine(in, fmt.Sprintf("A new version (%s) is available. Update now? (y/N): ", latest.Version))
	if err != nil {
		return fmt.Errorf("failed reading input: %w", err)
	}
	answer = strings.ToLower(answer)
	if answer != "y" && answer != "yes" {
		fmt.Println("Update cancelled.")
		return nil
	}

	fmt.Println("Updating...")
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	restart(exe, latest.Version)
	return nil
}

// restart replaces the current process with the updated binary, falling
// back to starting it as a child.
func restart(exe string, v semver.Version) {
	argv := append([]string{exe}, os.Args[1:]...)
	err := syscall.Exec(exe, argv, os.Environ())
	// Exec only returns on error.
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if startErr := cmd.Start(); startErr != nil {
		fmt.Printf("Updated to version %s, but failed to restart automatically: %v; fallback start error: %v\n", v, err, startErr)
		fmt.Println("Please restart the application manually.")
		return
	}
	os.Exit(0)
}
