// Package captions builds the HTML fragment the browser uses for
// word-by-word caption highlighting. The fragment carries everything
// the client script needs: per-word timing attributes and the audio
// embedded as a base64 data URL.
package captions

import (
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"murdermystery/internal/tts"
)

var (
	markdownRe = regexp.MustCompile(`\*{1,2}`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	bracketRe  = regexp.MustCompile(`\[.*?\]`)
)

// cleanText strips markdown emphasis, HTML tags, and bracketed
// emotion cues like [nervous laugh] that should be heard, not read.
func cleanText(text string) string {
	text = markdownRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, "")
	text = bracketRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

const waitingPlaceholder = `<div class="live-captions" id="live-captions-container"><em>Waiting for response...</em></div>`

// BuildHTML renders the caption fragment. Word timing comes from the
// TTS alignment when present and is estimated otherwise; audioPath is
// embedded when the file exists.
func BuildHTML(text string, words []tts.WordTimestamp, audioPath string) string {
	clean := cleanText(text)
	if clean == "" {
		return waitingPlaceholder
	}

	if len(words) == 0 {
		words = tts.EstimateTimestamps(clean)
	}

	var spans strings.Builder
	totalDuration := 0.0
	for i, w := range words {
		if w.End > totalDuration {
			totalDuration = w.End
		}
		state := "upcoming"
		if i == 0 {
			state = "active"
		}
		fmt.Fprintf(&spans,
			`<span class="caption-word %s" data-index="%d" data-start="%.3f" data-end="%.3f">%s </span>`,
			state, i, w.Start, w.End, html.EscapeString(w.Word))
	}

	containerID := "live-captions-" + uuid.NewString()[:8]
	audioID := "caption-audio-" + uuid.NewString()[:8]

	audioHTML := ""
	if audioPath != "" {
		if data, err := os.ReadFile(audioPath); err == nil {
			audioHTML = fmt.Sprintf(`
	<div class="caption-audio-container">
		<audio id="%s" class="caption-audio" controls preload="auto">
			<source src="data:audio/mpeg;base64,%s" type="audio/mpeg">
			Your browser does not support audio.
		</audio>
	</div>`, audioID, base64.StdEncoding.EncodeToString(data))
		}
	}

	return fmt.Sprintf(`
<div class="live-captions-wrapper" data-audio-id="%s">%s
	<div class="live-captions" id="%s" data-duration="%.2f">
		%s
	</div>
</div>`, audioID, audioHTML, containerID, totalDuration, spans.String())
}

// EstimateDuration guesses speaking time at ~150 words per minute,
// never below one second.
func EstimateDuration(text string) float64 {
	d := float64(len(strings.Fields(text))) * 0.4
	if d < 1.0 {
		return 1.0
	}
	return d
}

// SyncScript is served once to the browser; it watches for caption
// wrappers, binds their audio elements, and moves the highlight as
// playback progresses.
const SyncScript = `
(() => {
	let currentAudio = null;
	let currentContainer = null;
	let pollInterval = null;

	function updateHighlight(words, index) {
		words.forEach((w, i) => {
			w.classList.remove('active', 'spoken', 'upcoming');
			if (i < index) {
				w.classList.add('spoken');
			} else if (i === index) {
				w.classList.add('active');
			} else {
				w.classList.add('upcoming');
			}
		});
		if (words[index] && index > 0) {
			words[index].scrollIntoView({behavior: 'smooth', block: 'center', inline: 'nearest'});
		}
	}

	function syncCaptions() {
		if (!currentAudio || !currentContainer) return;
		const words = currentContainer.querySelectorAll('.caption-word');
		if (words.length === 0) return;
		const currentTime = currentAudio.currentTime || 0;
		let activeIndex = 0;
		for (let i = 0; i < words.length; i++) {
			const start = parseFloat(words[i].dataset.start) || 0;
			const end = parseFloat(words[i].dataset.end) || 0;
			if (currentTime >= start && currentTime < end) {
				activeIndex = i;
				break;
			} else if (currentTime >= start) {
				activeIndex = i;
			}
		}
		updateHighlight(words, activeIndex);
	}

	function setupAudio(audio, container) {
		if (currentAudio === audio) return;
		currentAudio = audio;
		currentContainer = container;
		if (pollInterval) clearInterval(pollInterval);
		audio.addEventListener('timeupdate', syncCaptions);
		audio.addEventListener('play', syncCaptions);
		audio.addEventListener('ended', () => {
			const words = container.querySelectorAll('.caption-word');
			updateHighlight(words, words.length);
		});
		pollInterval = setInterval(syncCaptions, 50);
		audio.play().catch(() => {});
	}

	function scanForCaptions() {
		document.querySelectorAll('.live-captions-wrapper').forEach(wrapper => {
			const audio = wrapper.querySelector('.caption-audio');
			const container = wrapper.querySelector('.live-captions');
			if (audio && container && audio !== currentAudio) {
				setupAudio(audio, container);
			}
		});
	}

	scanForCaptions();
	const observer = new MutationObserver(() => setTimeout(scanForCaptions, 100));
	observer.observe(document.body, {childList: true, subtree: true});
})();
`
