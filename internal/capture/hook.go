package capture

// HookScript runs on every new document before the meeting client. It taps
// remote WebRTC audio tracks and <audio>/<video> streams into one Web Audio
// destination, and exposes start/stop for an audio-only MediaRecorder on it.
const HookScript = `(() => {
  if (window.__hrCapture) return;
  const state = { ctx: null, dest: null, seen: new WeakSet(), tracks: new Set(), recorder: null, pending: 0, scan: null };

  const ensure = () => {
    if (!state.ctx) {
      state.ctx = new (window.AudioContext || window.webkitAudioContext)();
      state.dest = state.ctx.createMediaStreamDestination();
    }
    return state;
  };
  // A remote track reaches us through the peer connection and again through
  // the <audio> element playing it; each track is mixed in once.
  const addStream = (stream) => {
    if (!stream) return;
    const fresh = stream.getAudioTracks().filter((t) => !state.tracks.has(t.id));
    if (fresh.length === 0) return;
    fresh.forEach((t) => state.tracks.add(t.id));
    const s = ensure();
    try { s.ctx.createMediaStreamSource(new MediaStream(fresh)).connect(s.dest); } catch (e) {}
  };
  const scanMedia = () => {
    document.querySelectorAll('audio, video').forEach((el) => {
      if (state.seen.has(el) || !(el.srcObject instanceof MediaStream)) return;
      state.seen.add(el);
      addStream(el.srcObject);
    });
  };

  const Orig = window.RTCPeerConnection;
  if (Orig) {
    const Wrapped = function (...args) {
      const pc = new Orig(...args);
      pc.addEventListener('track', (e) => {
        if (e.track && e.track.kind === 'audio') addStream(new MediaStream([e.track]));
      });
      return pc;
    };
    Wrapped.prototype = Orig.prototype;
    Object.setPrototypeOf(Wrapped, Orig);
    window.RTCPeerConnection = Wrapped;
  }

  const encode = (buf) => {
    let bin = '';
    for (let i = 0; i < buf.length; i += 0x8000) {
      bin += String.fromCharCode.apply(null, buf.subarray(i, i + 0x8000));
    }
    return btoa(bin);
  };

  window.__hrCapture = {
    start(binding, mimeType, timeslice) {
      const s = ensure();
      scanMedia();
      if (s.ctx.state === 'suspended') s.ctx.resume();
      const rec = new MediaRecorder(s.dest.stream, { mimeType });
      rec.ondataavailable = async (e) => {
        if (!e.data || e.data.size === 0) return;
        s.pending++;
        try {
          await window[binding](encode(new Uint8Array(await e.data.arrayBuffer())));
        } finally {
          s.pending--;
        }
      };
      rec.start(timeslice);
      s.recorder = rec;
      s.scan = setInterval(scanMedia, 2000);
      return rec.state;
    },
    stop() {
      return new Promise((resolve) => {
        const rec = state.recorder;
        clearInterval(state.scan);
        if (!rec || rec.state === 'inactive') { resolve('inactive'); return; }
        rec.addEventListener('stop', () => {
          const drain = () => (state.pending > 0 ? setTimeout(drain, 50) : resolve('stopped'));
          drain();
        });
        rec.stop();
      });
    },
  };
})();`
