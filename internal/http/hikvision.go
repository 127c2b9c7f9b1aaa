package http

import (
	"encoding/xml"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/storage"
)

const maxMultipartMemory = 10 << 20

func (h *Handler) createHikvisionEvent(c *gin.Context) {
	h.log.Info().
		Str("remote_addr", c.ClientIP()).
		Str("user_agent", c.Request.UserAgent()).
		Str("content_type", c.Request.Header.Get("Content-Type")).
		Msg("received Hikvision event request")

	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.log.Error().Err(err).Msg("failed to parse multipart request")
		c.JSON(http.StatusBadRequest, errorResponse("invalid multipart payload"))
		return
	}

	xmlPayload, err := extractXMLPayload(c.Request.MultipartForm)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to extract xml payload")
		c.JSON(http.StatusBadRequest, errorResponse("xml payload not found"))
		return
	}

	hikEvent := &hikvisionEvent{}
	if err := xml.Unmarshal(xmlPayload, hikEvent); err != nil {
		h.log.Error().
			Err(err).
			Int("xml_size", len(xmlPayload)).
			Msg("failed to parse hikvision xml")
		c.JSON(http.StatusBadRequest, errorResponse("invalid xml payload"))
		return
	}

	h.log.Debug().
		Str("event_type", hikEvent.EventType).
		Str("license_plate", hikEvent.ANPR.LicensePlate).
		Str("device_id", hikEvent.DeviceID).
		Str("channel_id", hikEvent.ChannelID).
		Str("date_time", hikEvent.DateTime).
		Msg("parsed Hikvision event")

	payload := hikEvent.ToEventPayload(xmlPayload)

	if payload.CameraID == "" {
		cameraID := c.Query("camera_id")
		if cameraID == "" {
			cameraID = h.config.Camera.DefaultID
		}
		payload.CameraID = cameraID
	}
	if payload.EventTime.IsZero() {
		payload.EventTime = time.Now()
	}

	if url := h.uploadSnapshot(c, payload.EventTime); url != "" {
		payload.SnapshotURL = url
	}

	h.processEvent(c, payload, "Hikvision event")
}

// uploadSnapshot stores the first picture part of the request. Failures are
// logged and the event proceeds without a snapshot.
func (h *Handler) uploadSnapshot(c *gin.Context, at time.Time) string {
	if h.snapshots == nil {
		return ""
	}
	fh := findPicture(c.Request.MultipartForm)
	if fh == nil {
		return ""
	}

	file, err := fh.Open()
	if err != nil {
		h.log.Warn().Err(err).Str("filename", fh.Filename).Msg("failed to open snapshot")
		return ""
	}
	defer file.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	url, err := h.snapshots.Upload(c.Request.Context(), storage.SnapshotKey(at, fh.Filename), file, fh.Size, contentType)
	if err != nil {
		h.log.Warn().Err(err).Str("filename", fh.Filename).Msg("failed to upload snapshot")
		return ""
	}
	return url
}

// checkHikvisionEndpoint answers the camera's reachability probe.
func (h *Handler) checkHikvisionEndpoint(c *gin.Context) {
	h.log.Debug().
		Str("remote_addr", c.ClientIP()).
		Str("user_agent", c.Request.UserAgent()).
		Msg("received Hikvision endpoint check request")

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Hikvision ALPR endpoint is available",
	})
}

func extractXMLPayload(form *multipart.Form) ([]byte, error) {
	if form == nil {
		return nil, errors.New("empty form")
	}

	for _, files := range form.File {
		for _, fh := range files {
			if isXMLFile(fh) {
				file, err := fh.Open()
				if err != nil {
					return nil, err
				}
				defer file.Close()
				return io.ReadAll(file)
			}
		}
	}

	for key, values := range form.Value {
		if strings.Contains(strings.ToLower(key), "xml") && len(values) > 0 {
			return []byte(values[0]), nil
		}
	}

	return nil, errors.New("xml file not found")
}

func isXMLFile(fh *multipart.FileHeader) bool {
	filename := strings.ToLower(fh.Filename)
	if strings.HasSuffix(filename, ".xml") {
		return true
	}
	contentType := strings.ToLower(fh.Header.Get("Content-Type"))
	return strings.Contains(contentType, "xml")
}

func findPicture(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	for _, files := range form.File {
		for _, fh := range files {
			contentType := strings.ToLower(fh.Header.Get("Content-Type"))
			name := strings.ToLower(fh.Filename)
			if strings.HasPrefix(contentType, "image/") || strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") || strings.HasSuffix(name, ".png") {
				return fh
			}
		}
	}
	return nil
}

type hikvisionEvent struct {
	XMLName          xml.Name `xml:"EventNotificationAlert"`
	EventType        string   `xml:"eventType" json:"event_type"`
	EventDescription string   `xml:"eventDescription" json:"event_description"`
	DateTime         string   `xml:"dateTime" json:"date_time"`
	ChannelID        string   `xml:"channelID" json:"channel_id"`
	DeviceID         string   `xml:"deviceID" json:"device_id"`
	DeviceName       string   `xml:"deviceName" json:"device_name"`
	IPAddress        string   `xml:"ipAddress" json:"ip_address"`
	ANPR             struct {
		LicensePlate    string  `xml:"licensePlate" json:"license_plate"`
		ConfidenceLevel float64 `xml:"confidenceLevel" json:"confidence_level"`
		VehicleType     string  `xml:"vehicleType" json:"vehicle_type"`
		VehicleColor    string  `xml:"vehicleColor" json:"vehicle_color"`
		PlateColor      string  `xml:"plateColor" json:"plate_color"`
		Country         string  `xml:"country" json:"country"`
		Brand           string  `xml:"brand" json:"brand"`
		Direction       string  `xml:"direction" json:"direction"`
		LaneNo          string  `xml:"laneNo" json:"lane_no"`
		Speed           string  `xml:"speed" json:"speed"`
	} `xml:"ANPR" json:"anpr"`
	VehicleInfo struct {
		Type             string `xml:"vehicleType" json:"vehicle_type"`
		Color            string `xml:"color" json:"color"`
		Brand            string `xml:"brand" json:"brand"`
		VehicleLogoRecog string `xml:"vehicleLogoRecog" json:"vehicle_logo_recog"`
		Model            string `xml:"vehicleModel" json:"vehicle_model"`
		Speed            string `xml:"speed" json:"speed"`
	} `xml:"vehicleInfo" json:"vehicle_info"`
	PicInfo struct {
		FilePath  string   `xml:"filePath" json:"file_path"`
		FilePaths []string `xml:"filePathList>filePath" json:"file_path_list"`
	} `xml:"picInfo" json:"pic_info"`
}

// ToEventPayload maps the camera alert onto an event. The camera's own plate
// read becomes the raw OCR text; it is not trusted beyond that.
func (e *hikvisionEvent) ToEventPayload(rawXML []byte) alpr.EventPayload {
	vehicleBrand := firstNonEmpty(e.VehicleInfo.Brand, e.ANPR.Brand)
	if vehicleBrand == "" && e.VehicleInfo.VehicleLogoRecog != "" && e.VehicleInfo.VehicleLogoRecog != "0" {
		vehicleBrand = "brand_id:" + e.VehicleInfo.VehicleLogoRecog
	}

	vehicleModel := e.VehicleInfo.Model
	if strings.TrimSpace(vehicleModel) == "0" {
		vehicleModel = ""
	}

	snapshotURL := e.PicInfo.FilePath
	if snapshotURL == "" && len(e.PicInfo.FilePaths) > 0 {
		snapshotURL = e.PicInfo.FilePaths[0]
	}

	rawPayload := map[string]interface{}{
		"event_type":        e.EventType,
		"event_description": e.EventDescription,
		"device_id":         e.DeviceID,
		"device_name":       e.DeviceName,
		"channel_id":        e.ChannelID,
		"ip_address":        e.IPAddress,
		"plate_color":       e.ANPR.PlateColor,
		"country":           e.ANPR.Country,
	}
	if len(rawXML) > 0 {
		rawPayload["xml"] = string(rawXML)
	}

	return alpr.EventPayload{
		CameraID:    firstNonEmpty(e.ChannelID, e.DeviceID),
		CameraModel: firstNonEmpty(e.DeviceName, e.DeviceID),
		RawText:     strings.TrimSpace(e.ANPR.LicensePlate),
		Confidence:  e.ANPR.ConfidenceLevel,
		Direction:   strings.TrimSpace(e.ANPR.Direction),
		Lane:        parseLane(e.ANPR.LaneNo),
		EventTime:   parseHikvisionTime(e.DateTime),
		Vehicle: alpr.VehicleInfo{
			Color: firstNonEmpty(e.VehicleInfo.Color, e.ANPR.VehicleColor),
			Type:  firstNonEmpty(e.ANPR.VehicleType, e.VehicleInfo.Type),
			Brand: vehicleBrand,
			Model: strings.TrimSpace(vehicleModel),
			Speed: parseOptionalFloat(firstNonEmpty(e.VehicleInfo.Speed, e.ANPR.Speed)),
		},
		SnapshotURL: snapshotURL,
		RawPayload:  rawPayload,
	}
}

func parseHikvisionTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}

	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}

	return time.Time{}
}

func parseLane(value string) int {
	lane, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return lane
}

func parseOptionalFloat(value string) *float64 {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return &f
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
