package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/msalah0e/protoviz/internal/graph"
)

// ─── HTML view (self-contained canvas page) ───

type htmlRenderer struct{}

func (htmlRenderer) Name() string { return "html" }

// Render writes a page that draws the graph at its computed positions.
// Hovering a node previews its component; nothing is simulated in the browser.
func (htmlRenderer) Render(w io.Writer, g *graph.Graph) error {
	page, err := HTML(g, "protoviz")
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, page)
	return err
}

// HTML returns the page with the view embedded as JSON.
func HTML(g *graph.Graph, title string) (string, error) {
	view, err := json.Marshal(BuildView(g))
	if err != nil {
		return "", fmt.Errorf("encoding view: %w", err)
	}
	titleJSON, _ := json.Marshal(title)

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>protoviz</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
body{background:#0a0e17;color:#e0e0e0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;overflow:hidden}
canvas{display:block}
#info{position:fixed;top:16px;left:16px;z-index:10;background:rgba(10,14,23,0.9);border:1px solid rgba(45,182,130,0.3);border-radius:12px;padding:16px 20px;font-size:13px;min-width:200px}
#info h2{color:#2DB682;font-size:16px;margin-bottom:8px}
.stat{color:#888;margin:2px 0}
.stat b{color:#ccc}
#tooltip{position:fixed;z-index:20;pointer-events:none;display:none;background:rgba(10,14,23,0.95);border:1px solid rgba(45,182,130,0.5);border-radius:10px;padding:10px 14px;font-size:12px;max-width:300px}
.tt-name{color:#2DB682;font-weight:700}
.tt-meta{color:#888}
</style>
</head>
<body>
<div id="info">
  <h2 id="title"></h2>
  <div class="stat"><b id="n-nodes">0</b> proteins</div>
  <div class="stat"><b id="n-edges">0</b> interactions</div>
  <div class="stat"><b id="n-comps">0</b> components</div>
</div>
<div id="tooltip"></div>
<canvas id="canvas"></canvas>
<script>
"use strict";
const VIEW=%s;
document.getElementById('title').textContent=%s;
document.getElementById('n-nodes').textContent=VIEW.nodes.length;
document.getElementById('n-edges').textContent=VIEW.edges.length;
document.getElementById('n-comps').textContent=VIEW.components;

const PALETTE=['#2DB682','#0171E3','#E07C3A','#9B59B6','#E74C3C','#1ABC9C','#F1C40F','#3498DB'];
const types=[...new Set(VIEW.nodes.map(n=>n.type||''))].sort();
const color=t=>PALETTE[types.indexOf(t||'')%%PALETTE.length];

const byId={};
VIEW.nodes.forEach((n,i)=>{
  n.cls=new Set(n.classes||[]);
  if(n.x===undefined){n.x=(i%%20)*40;n.y=Math.floor(i/20)*40}
  byId[n.id]=n;
});
const edges=VIEW.edges.filter(e=>byId[e.source]&&byId[e.target]);

const canvas=document.getElementById('canvas');
const ctx=canvas.getContext('2d');
let W,H,camera={x:0,y:0,zoom:1},pan=null,preview=null;
function resize(){W=canvas.width=window.innerWidth;H=canvas.height=window.innerHeight}
function fit(nodes){
  if(!nodes.length)return;
  const xs=nodes.map(n=>n.x),ys=nodes.map(n=>n.y);
  const minX=Math.min(...xs),maxX=Math.max(...xs),minY=Math.min(...ys),maxY=Math.max(...ys);
  const z=Math.min((W-80)/Math.max(maxX-minX,1),(H-80)/Math.max(maxY-minY,1),4);
  camera={x:(minX+maxX)/2,y:(minY+maxY)/2,zoom:Math.max(z,0.05)};
}
resize();
fit(VIEW.nodes);
window.addEventListener('resize',()=>{resize();draw()});

function toScreen(x,y){return[(x-camera.x)*camera.zoom+W/2,(y-camera.y)*camera.zoom+H/2]}
function toWorld(sx,sy){return[(sx-W/2)/camera.zoom+camera.x,(sy-H/2)/camera.zoom+camera.y]}

function draw(){
  ctx.clearRect(0,0,W,H);
  for(const e of edges){
    const a=byId[e.source],b=byId[e.target];
    if(e.hidden||a.cls.has('hidden')||b.cls.has('hidden'))continue;
    const[ax,ay]=toScreen(a.x,a.y),[bx,by]=toScreen(b.x,b.y);
    const lit=preview!==null&&a.component===preview;
    ctx.beginPath();ctx.moveTo(ax,ay);ctx.lineTo(bx,by);
    ctx.strokeStyle=lit?'rgba(241,196,15,0.7)':'rgba(255,255,255,0.12)';
    ctx.lineWidth=lit?2:1;ctx.stroke();
  }
  for(const n of VIEW.nodes){
    if(n.cls.has('hidden'))continue;
    const[sx,sy]=toScreen(n.x,n.y);
    const hl=n.cls.has('highlighted'),hv=!hl&&(n.cls.has('hover')||(preview!==null&&n.component===preview));
    const dim=n.cls.has('dimmed')&&!hv;
    const r=(hl||hv?8:6)*Math.max(camera.zoom,0.5);
    ctx.globalAlpha=dim?0.25:1;
    ctx.beginPath();ctx.arc(sx,sy,r,0,Math.PI*2);
    ctx.fillStyle=hl?'#2DB682':hv?'#F1C40F':color(n.type);ctx.fill();
    ctx.font=(hl?'bold ':'')+'11px -apple-system,sans-serif';
    ctx.fillStyle=hl||hv?'#fff':'#bbb';ctx.textAlign='center';
    ctx.fillText(n.label,sx,sy+r+12);
    ctx.globalAlpha=1;
  }
}

function findNode(sx,sy){
  const[wx,wy]=toWorld(sx,sy);
  for(const n of VIEW.nodes){
    if(n.cls.has('hidden'))continue;
    const dx=n.x-wx,dy=n.y-wy,r=10/camera.zoom;
    if(dx*dx+dy*dy<r*r)return n;
  }
  return null;
}

canvas.addEventListener('mousedown',e=>{pan={sx:e.clientX,sy:e.clientY,cx:camera.x,cy:camera.y}});
window.addEventListener('mouseup',()=>{pan=null});
canvas.addEventListener('mousemove',e=>{
  if(pan){
    camera.x=pan.cx-(e.clientX-pan.sx)/camera.zoom;
    camera.y=pan.cy-(e.clientY-pan.sy)/camera.zoom;
  }
  const n=findNode(e.clientX,e.clientY);
  preview=n?n.component:null;
  const tt=document.getElementById('tooltip');
  if(n){
    tt.textContent='';
    const name=document.createElement('div');name.className='tt-name';name.textContent=n.label;tt.appendChild(name);
    const meta=document.createElement('div');meta.className='tt-meta';
    meta.textContent=(n.type?n.type+' / ':'')+'component '+n.component;tt.appendChild(meta);
    tt.style.display='block';tt.style.left=(e.clientX+14)+'px';tt.style.top=(e.clientY+14)+'px';
  }else{tt.style.display='none'}
  draw();
});
canvas.addEventListener('wheel',e=>{
  e.preventDefault();
  camera.zoom=Math.min(4,Math.max(0.05,camera.zoom*(e.deltaY<0?1.1:0.9)));
  draw();
},{passive:false});
canvas.addEventListener('dblclick',()=>{fit(VIEW.nodes.filter(n=>!n.cls.has('hidden')));draw()});
draw();
</script>
</body>
</html>
`, view, titleJSON), nil
}
