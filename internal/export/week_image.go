package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// ErrNotWeekView картинка строится только для недельного вида
var ErrNotWeekView = errors.New("week image requires a week view")

type fontStyle string

const (
	fontRegular fontStyle = ""
	fontMedium  fontStyle = "medium"
	fontBold    fontStyle = "bold"
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 8
	minBlockHeight   = 8.0
	blockRadius      = 6.0
	shadowOffset     = 3.0
	daysInWeek       = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	maxTitleRunes    = 18
	minHeightForText = 25.0
)

const (
	titleFontSize      = 25.0
	dayFontSize        = 27.0
	hourLabelFontSize  = 18.0
	blockTimeFontSize  = 17.0
	legendItemFontSize = 12.0
)

var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	lessonColor       = color.RGBA{255, 182, 193, 255}
	highPriorityColor = color.RGBA{255, 204, 128, 235}
	activityColor     = color.RGBA{133, 193, 85, 220}
	lowPriorityColor  = color.RGBA{180, 200, 220, 220}
	blockTextColor    = color.RGBA{20, 24, 28, 230}
	lessonTextColor   = color.RGBA{120, 40, 50, 255}
	blockShadowColor  = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

type hourRange struct {
	start int
	end   int
	total int
}

var fontCache = struct {
	sync.Mutex
	fonts map[fontStyle]*opentype.Font
}{fonts: make(map[fontStyle]*opentype.Font)}

func fontData(style fontStyle) []byte {
	switch style {
	case fontBold:
		return gobold.TTF
	case fontMedium:
		return gomedium.TTF
	default:
		return goregular.TTF
	}
}

// setFont выставляет шрифт стиля style, при ошибке откатывается к basicfont
func setFont(dc *gg.Context, size float64, style fontStyle) {
	fontCache.Lock()
	f, ok := fontCache.fonts[style]
	if !ok {
		parsed, err := opentype.Parse(fontData(style))
		if err == nil {
			fontCache.fonts[style] = parsed
			f = parsed
		}
	}
	fontCache.Unlock()

	if f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// RenderWeek рисует недельный вид в PNG. now - текущее локальное время для подсветки дня и линии времени.
func RenderWeek(v *schedule.View, now time.Time) ([]byte, error) {
	if v == nil || v.Mode != schedule.ViewWeek || len(v.Days) != daysInWeek {
		return nil, ErrNotWeekView
	}

	today := schedule.DateOf(now)
	highlightToday := !today.Before(v.WindowStart) && !today.After(v.WindowEnd)
	hours := calculateHourRange(v)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, v)
	drawHourLabels(dc, hours, cellHeight)
	for i, day := range v.Days {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)
		isToday := highlightToday && day.Date.Equal(today)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, isToday)
		drawDayHeader(dc, day.Date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, o := range day.Occurrences {
			drawOccurrence(dc, o, x, y, dayWidth, hours, cellHeight)
		}
	}
	if highlightToday {
		drawCurrentTimeLine(dc, model.ClockOf(now), hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

// calculateHourRange диапазон часов по вхождениям недели с запасом сверху и снизу.
// Пустая неделя показывается в рамках дневного вида.
func calculateHourRange(v *schedule.View) hourRange {
	minHour, maxHour := 24, 0
	for _, day := range v.Days {
		for _, o := range day.Occurrences {
			minHour = min(minHour, o.StartTime.Hour())
			endH := o.EndTime.Hour()
			if o.EndTime.Minute() > 0 {
				endH++
			}
			maxHour = max(maxHour, endH)
		}
	}

	if minHour == 24 {
		minHour, maxHour = schedule.DayViewFirstHour, schedule.DayViewLastHour
	}

	start := max(minHour-hourPaddingTop, 0)
	end := min(maxHour+hourPaddingBot, 24)
	return hourRange{start: start, end: end, total: max(end-start, 1)}
}

func drawHeader(dc *gg.Context, v *schedule.View) {
	title := monthName(v.WindowStart.Month())
	if v.WindowEnd.Month() != v.WindowStart.Month() {
		title += " - " + monthName(v.WindowEnd.Month())
	}
	title += " " + strconv.Itoa(v.WindowEnd.Year())

	setFont(dc, titleFontSize, fontBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2+10, float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	setFont(dc, hourLabelFontSize, fontMedium)
	dc.SetColor(hourLabelColor)

	for i := 0; i < hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(model.NewClock(hours.start+i, 0).String(), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	setFont(dc, dayFontSize, fontBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawOccurrence рисует блок одного вхождения
func drawOccurrence(dc *gg.Context, o model.Occurrence, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startH := float64(o.StartTime) / 60
	endH := float64(o.EndTime) / 60

	blockY := y + (startH-float64(hours.start))*cellHeight
	blockHeight := max((endH-startH)*cellHeight, minBlockHeight)
	blockWidth := float64(dayWidth) - float64(dayPaddingX*2)
	fill := occurrenceColor(o)

	dc.SetColor(blockShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, blockY+2+shadowOffset, blockWidth, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Stroke()

	txt := blockTextColor
	if o.Source == model.SourceLesson {
		txt = lessonTextColor
	}

	setFont(dc, blockTimeFontSize, fontMedium)
	dc.SetColor(txt)
	txtX := x + dayPaddingX + 8
	txtY := blockY + 18
	dc.DrawStringAnchored(o.StartTime.String(), txtX, txtY, 0, 0)

	if o.Title != "" && blockHeight > minHeightForText {
		setFont(dc, blockTimeFontSize-2, fontMedium)
		dc.DrawStringAnchored(truncate(o.Title, maxTitleRunes), txtX, txtY+16, 0, 0)
	}
}

func occurrenceColor(o model.Occurrence) color.RGBA {
	if o.Source == model.SourceLesson {
		return lessonColor
	}
	switch o.Priority {
	case model.PriorityHigh:
		return highPriorityColor
	case model.PriorityLow:
		return lowPriorityColor
	default:
		return activityColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now model.Clock, hours hourRange, cellHeight float64, dayWidth int) {
	h := float64(now) / 60
	if h < float64(hours.start) || h > float64(hours.end) {
		return
	}

	y := float64(headerHeight) + (h-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(leftLabelsWidth+daysInWeek*dayWidth), y)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	x := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	y := float64(imageHeight) - 120.0

	items := []struct {
		label string
		clr   color.Color
	}{
		{"Занятие", lessonColor},
		{"Важное", highPriorityColor},
		{"Обычное", activityColor},
		{"Неважное", lowPriorityColor},
	}

	const boxW, boxH = 20.0, 14.0
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		setFont(dc, legendItemFontSize, fontRegular)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2+1, 0, 0.2)
		y += boxH + 14
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func weekdayShort(wd time.Weekday) string {
	return [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}[wd]
}

func monthName(m time.Month) string {
	return [...]string{
		"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
	}[m-1]
}
