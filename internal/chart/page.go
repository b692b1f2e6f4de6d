package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
)

// EChartsURL is the pinned ECharts build the pages load.
const EChartsURL = "https://cdn.jsdelivr.net/npm/echarts@5.4.3/dist/echarts.min.js"

// DefaultTitle is used when no title is given.
const DefaultTitle = "图表"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <script src="{{.Script}}"></script>
    <style>
        body { margin: 0; padding: 20px; background: #fff; }
        #main { width: 100%; height: 600px; }
    </style>
</head>
<body>
    <div id="main"></div>
    <script type="text/javascript">
        var chartDom = document.getElementById('main');
        var myChart = echarts.init(chartDom);
        var option = {{.Option}};

        myChart.setOption(option);
        window.addEventListener('resize', function() {
            myChart.resize();
        });
    </script>
</body>
</html>
`))

type obj = map[string]any

// Option builds the ECharts option object for d.
func Option(kind Kind, title string, d *Data) (map[string]any, error) {
	if err := d.Validate(kind); err != nil {
		return nil, err
	}
	if title == "" {
		title = DefaultTitle
	}

	names := make([]string, len(d.Series))
	for i, s := range d.Series {
		names[i] = s.Name
	}
	grid := obj{"left": "3%", "right": "4%", "bottom": "3%", "containLabel": true}

	switch kind {
	case Bar, Line:
		series := make([]obj, len(d.Series))
		for i, s := range d.Series {
			series[i] = obj{"name": s.Name, "type": string(kind), "data": values(s.Data)}
			if kind == Line {
				series[i]["smooth"] = true
			}
		}
		titleOpt := obj{"text": title, "left": "center"}
		tooltip := obj{"trigger": "axis"}
		if kind == Bar {
			titleOpt["textStyle"] = obj{"fontSize": 20, "fontWeight": "bold"}
			tooltip["axisPointer"] = obj{"type": "shadow"}
		}
		return obj{
			"title":   titleOpt,
			"tooltip": tooltip,
			"legend":  obj{"top": "10%", "data": names},
			"grid":    grid,
			"xAxis":   obj{"type": "category", "data": d.XAxis},
			"yAxis":   obj{"type": "value"},
			"series":  series,
		}, nil

	case Pie:
		return obj{
			"title":   obj{"text": title, "left": "center"},
			"tooltip": obj{"trigger": "item", "formatter": "{a} <br/>{b}: {c} ({d}%)"},
			"legend":  obj{"orient": "vertical", "left": "left"},
			"series": []obj{{
				"name":   title,
				"type":   "pie",
				"radius": "55%",
				"center": []string{"50%", "60%"},
				"data":   d.Items,
				"emphasis": obj{"itemStyle": obj{
					"shadowBlur":    10,
					"shadowOffsetX": 0,
					"shadowColor":   "rgba(0, 0, 0, 0.5)",
				}},
			}},
		}, nil

	case Scatter:
		series := make([]obj, len(d.Series))
		for i, s := range d.Series {
			series[i] = obj{"name": s.Name, "type": "scatter", "symbolSize": 10, "data": values(s.Data)}
		}
		return obj{
			"title":   obj{"text": title, "left": "center"},
			"tooltip": obj{"trigger": "item"},
			"legend":  obj{"top": "10%", "data": names},
			"grid":    grid,
			"xAxis":   obj{"type": "value", "scale": true},
			"yAxis":   obj{"type": "value", "scale": true},
			"series":  series,
		}, nil

	case Radar:
		data := make([]obj, len(d.Series))
		for i, s := range d.Series {
			data[i] = obj{"name": s.Name, "value": values(s.Data)}
		}
		return obj{
			"title":   obj{"text": title, "left": "center"},
			"tooltip": obj{"trigger": "item"},
			"legend":  obj{"top": "10%", "data": names},
			"radar":   obj{"indicator": d.Indicators, "center": []string{"50%", "58%"}, "radius": "60%"},
			"series":  []obj{{"name": title, "type": "radar", "data": data}},
		}, nil
	}
	return nil, fmt.Errorf("unknown chart type %q", kind)
}

func values(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}

// Render writes a standalone HTML page for the chart.
func Render(w io.Writer, kind Kind, title string, d *Data) error {
	opt, err := Option(kind, title, d)
	if err != nil {
		return err
	}
	if title == "" {
		title = DefaultTitle
	}
	js, err := json.MarshalIndent(opt, "        ", "    ")
	if err != nil {
		return fmt.Errorf("encode chart option: %w", err)
	}
	return pageTemplate.Execute(w, struct {
		Title  string
		Script string
		Option template.JS
	}{title, EChartsURL, template.JS(js)})
}

// WriteFile renders the chart page to path, creating parent directories.
func WriteFile(path string, kind Kind, title string, d *Data) error {
	var buf bytes.Buffer
	if err := Render(&buf, kind, title, d); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
