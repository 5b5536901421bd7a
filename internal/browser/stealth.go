package browser

import "strings"

// Evasion is one anti-fingerprint patch applied before any page script runs.
type Evasion struct {
	Name   string
	Script string
}

const (
	EvasionIframeContentWindow = "iframe.contentWindow"
	EvasionMediaCodecs         = "media.codecs"
)

// Evasions is an ordered evasion set.
type Evasions []Evasion

// AllEvasions returns every known evasion.
func AllEvasions() Evasions {
	return Evasions{
		{Name: "navigator.webdriver", Script: `Object.defineProperty(Navigator.prototype, 'webdriver', { get: () => false });`},
		{Name: "chrome.runtime", Script: `
window.chrome = window.chrome || {};
window.chrome.runtime = window.chrome.runtime || {};
window.chrome.app = window.chrome.app || { isInstalled: false };`},
		{Name: "navigator.languages", Script: `Object.defineProperty(Navigator.prototype, 'languages', { get: () => ['en-US', 'en'] });`},
		{Name: "navigator.plugins", Script: `
const fakePlugins = [
  { name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
  { name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', description: '' },
  { name: 'Native Client', filename: 'internal-nacl-plugin', description: '' },
];
Object.defineProperty(Navigator.prototype, 'plugins', { get: () => fakePlugins });`},
		{Name: "navigator.permissions", Script: `
const origQuery = window.navigator.permissions && window.navigator.permissions.query;
if (origQuery) {
  window.navigator.permissions.query = (p) =>
    p && p.name === 'notifications'
      ? Promise.resolve({ state: Notification.permission })
      : origQuery.call(window.navigator.permissions, p);
}`},
		{Name: "navigator.hardwareConcurrency", Script: `Object.defineProperty(Navigator.prototype, 'hardwareConcurrency', { get: () => 4 });`},
		{Name: "webgl.vendor", Script: `
const getParameter = WebGLRenderingContext.prototype.getParameter;
WebGLRenderingContext.prototype.getParameter = function (p) {
  if (p === 37445) return 'Intel Inc.';
  if (p === 37446) return 'Intel Iris OpenGL Engine';
  return getParameter.call(this, p);
};`},
		{Name: "window.outerdimensions", Script: `
if (!window.outerWidth || !window.outerHeight) {
  Object.defineProperty(window, 'outerWidth', { get: () => window.innerWidth });
  Object.defineProperty(window, 'outerHeight', { get: () => window.innerHeight + 85 });
}`},
		{Name: EvasionIframeContentWindow, Script: `
const desc = Object.getOwnPropertyDescriptor(HTMLIFrameElement.prototype, 'contentWindow');
Object.defineProperty(HTMLIFrameElement.prototype, 'contentWindow', {
  get: function () {
    const w = desc.get.call(this);
    if (w && this.hasAttribute('srcdoc')) { return window; }
    return w;
  },
});`},
		{Name: EvasionMediaCodecs, Script: `
const canPlayType = HTMLMediaElement.prototype.canPlayType;
HTMLMediaElement.prototype.canPlayType = function (t) {
  if (t && t.includes('mp4a.40')) return 'probably';
  if (t && t.includes('avc1.42E01E')) return 'probably';
  return canPlayType.call(this, t);
};`},
	}
}

// DefaultEvasions is AllEvasions minus the frame-spoofing and codec-reporting
// patches, which break the Meet client's own compatibility checks.
func DefaultEvasions() Evasions {
	return AllEvasions().Without(EvasionIframeContentWindow, EvasionMediaCodecs)
}

// Without returns a copy of e with the named evasions removed.
func (e Evasions) Without(names ...string) Evasions {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := make(Evasions, 0, len(e))
	for _, ev := range e {
		if !skip[ev.Name] {
			out = append(out, ev)
		}
	}
	return out
}

// Names lists the evasion names in order.
func (e Evasions) Names() []string {
	names := make([]string, len(e))
	for i, ev := range e {
		names[i] = ev.Name
	}
	return names
}

// Script joins the evasions into one init script. Each patch is isolated so a
// failing one does not stop the rest.
func (e Evasions) Script() string {
	var sb strings.Builder
	for _, ev := range e {
		sb.WriteString("(() => { try {")
		sb.WriteString(ev.Script)
		sb.WriteString("\n} catch (e) {} })();\n")
	}
	return sb.String()
}
