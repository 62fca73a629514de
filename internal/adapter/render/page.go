package render

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	// SceneEvent names the server-sent event carrying scene snapshots
	SceneEvent = "scene"
	// StreamPath and MovePath are relative to the index page
	StreamPath = "api/scene/stream"
	MovePath   = "api/entities/"
)

// PageData feeds the index page
type PageData struct {
	Title  string
	Scene  template.HTML
	Legend template.HTML
	Table  template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:16px}
#layout{display:flex;gap:16px;align-items:flex-start}
#container svg{border:1px solid #ddd;touch-action:none}
#legenda{min-width:160px;line-height:1.6}
#tabela-orcamento{border-collapse:collapse;margin-top:16px}
#tabela-orcamento td,#tabela-orcamento th{border:1px solid #ccc;padding:4px 8px}
</style>
</head>
<body data-stream="{{.StreamPath}}" data-event="{{.Event}}" data-move="{{.MovePath}}">
<div id="layout">
<div id="container">{{.Scene}}</div>
<div id="legenda">{{.Legend}}</div>
</div>
<table id="tabela-orcamento">
<thead><tr><th>Origem</th><th>Tipo</th><th>Valor</th><th>Destino</th></tr></thead>
<tbody>{{.Table}}</tbody>
</table>
<script>
(function () {
  const cfg = document.body.dataset;
  const container = document.getElementById('container');

  let loading = false, stale = false;
  function refresh() {
    if (loading) { stale = true; return; }
    loading = true;
    fetch('scene.svg', {cache: 'no-store'})
      .then(r => r.text())
      .then(svg => { container.innerHTML = svg; })
      .finally(() => {
        loading = false;
        if (stale) { stale = false; refresh(); }
      });
  }
  new EventSource(cfg.stream).addEventListener(cfg.event, refresh);

  // one move request per animation frame, never more than one in flight
  let dragging = null, pending = null, frame = 0, sending = false;
  function send() {
    frame = 0;
    if (!pending || sending) return;
    const p = pending;
    pending = null;
    sending = true;
    fetch(cfg.move + encodeURIComponent(p.id) + '/move', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({x: p.x, y: p.y}),
    }).finally(() => {
      sending = false;
      if (pending) schedule();
    });
  }
  function schedule() {
    if (!frame) frame = requestAnimationFrame(send);
  }
  function drag(e) {
    if (!dragging) return;
    const svg = container.querySelector('svg');
    if (!svg) return;
    const box = svg.getBoundingClientRect();
    pending = {id: dragging, x: e.clientX - box.left, y: e.clientY - box.top};
    schedule();
  }
  container.addEventListener('pointerdown', e => {
    const g = e.target.closest('g.entity');
    if (!g) return;
    e.preventDefault();
    dragging = g.dataset.id;
  });
  window.addEventListener('pointermove', drag);
  window.addEventListener('pointerup', e => {
    drag(e);
    dragging = null;
  });
  window.addEventListener('pointercancel', () => { dragging = null; });
})();
</script>
</body>
</html>
`))

// Page renders the index page around a pre-rendered scene, legend and table
func Page(data PageData) ([]byte, error) {
	var buf bytes.Buffer
	view := struct {
		PageData
		Event      string
		StreamPath string
		MovePath   string
	}{data, SceneEvent, StreamPath, MovePath}
	if err := pageTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}
