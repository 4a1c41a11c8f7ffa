package ingest

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mriphysio/internal/models"
	"mriphysio/pkg/physio"
)

// FormatGE is the registry tag of the GE physio reader.
const FormatGE = "ge"

func init() {
	Register(FormatGE, ReadGE)
}

// Archive magic bytes.
var (
	zipMagic  = []byte{0x50, 0x4b, 0x03, 0x04}
	gzipMagic = []byte{0x1f, 0x8b}
)

// geRecording is the normalized form of a GE physio archive.
type geRecording struct {
	cardiac models.CardiacInput
	resp    models.RespirationInput
	session models.SessionInfo
}

func (r *geRecording) Cardiac() models.CardiacInput         { return r.cardiac }
func (r *geRecording) Respiration() models.RespirationInput { return r.resp }
func (r *geRecording) Session() models.SessionInfo          { return r.session }

// member is one file pulled out of the physio archive.
type member struct {
	name string
	data []byte
}

// ReadGE reads a GE physio recording: a zip or gzipped-tar archive (or a
// directory of loose files) whose members are named after their channel.
// Waveform members hold one sample per line; the trigger members hold
// sample indices that are scaled by the cardiac sampling interval.
//
// GE recordings end when the scan ends, so all clocks are shifted such
// that the last recorded sample coincides with the end of the scan; time
// zero then matches the first frame.
func ReadGE(path string, p Params) (RawPhysioRecording, error) {
	members, err := readMembers(path)
	if err != nil {
		return nil, err
	}

	rec := &geRecording{}
	rec.cardiac.DT = p.CardDT
	rec.resp.DT = p.RespDT

	var cardTrigSamples []float64
	for _, m := range members {
		switch {
		case strings.Contains(m.name, "RESPData"):
			rec.resp.Wave, err = parseWaveform(m.data)
		case strings.Contains(m.name, "RESPTrig"):
			// Respiration triggers are recorded but unused.
		case strings.Contains(m.name, "PPGData"):
			rec.cardiac.Wave, err = parseWaveform(m.data)
		case strings.Contains(m.name, "PPGTrig"):
			cardTrigSamples, err = parseWaveform(m.data)
		case strings.HasSuffix(m.name, "_physio.json"):
			rec.session, err = parseSession(m.data)
		}
		if err != nil {
			return nil, &physio.FormatError{Path: m.name, Reason: err.Error()}
		}
	}
	if len(rec.resp.Wave) == 0 {
		return nil, &physio.FormatError{Path: path, Reason: "archive contains no RESPData member"}
	}
	if len(rec.cardiac.Wave) == 0 {
		return nil, &physio.FormatError{Path: path, Reason: "archive contains no PPGData member"}
	}

	// Move time zero to the start of the scan: the recording runs up to
	// the scan end, so its tail beyond the scan duration is lead-in.
	cardOffset := rec.cardiac.DT*float64(len(rec.cardiac.Wave)) - p.Timing.ScanDuration()
	rec.cardiac.Trig = make([]float64, len(cardTrigSamples))
	for i, s := range cardTrigSamples {
		rec.cardiac.Trig[i] = s*rec.cardiac.DT - cardOffset
	}

	return rec, nil
}

// readMembers lists the files inside the archive (or directory) at path.
func readMembers(path string) ([]member, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading physio input: %w", err)
	}
	if info.IsDir() {
		return readDirMembers(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading physio archive: %w", err)
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return readZipMembers(path, data)
	case bytes.HasPrefix(data, gzipMagic):
		return readTgzMembers(path, data)
	}
	return nil, &physio.FormatError{Path: path, Reason: "only zip and tgz physio archives are supported"}
}

func readDirMembers(dir string) ([]member, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading physio directory: %w", err)
	}
	var members []member
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading physio file %s: %w", e.Name(), err)
		}
		members = append(members, member{name: e.Name(), data: data})
	}
	return members, nil
}

func readZipMembers(path string, data []byte) ([]member, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &physio.FormatError{Path: path, Reason: "corrupt zip archive: " + err.Error()}
	}
	var members []member
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, &physio.FormatError{Path: path, Reason: "corrupt zip member " + f.Name}
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &physio.FormatError{Path: path, Reason: "corrupt zip member " + f.Name}
		}
		members = append(members, member{name: f.Name, data: body})
	}
	return members, nil
}

func readTgzMembers(path string, data []byte) ([]member, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &physio.FormatError{Path: path, Reason: "corrupt gzip stream: " + err.Error()}
	}
	defer gz.Close()

	var members []member
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &physio.FormatError{Path: path, Reason: "corrupt tar archive: " + err.Error()}
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return nil, &physio.FormatError{Path: path, Reason: "corrupt tar member " + hdr.Name}
		}
		members = append(members, member{name: hdr.Name, data: body})
	}
	return members, nil
}

// parseWaveform reads whitespace-separated samples, one or more per line.
func parseWaveform(data []byte) ([]float64, error) {
	var wave []float64
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		for _, field := range strings.Fields(sc.Text()) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("bad waveform sample %q", field)
			}
			wave = append(wave, v)
		}
	}
	return wave, sc.Err()
}

// sessionJSON mirrors the layout of the *_physio.json metadata file.
type sessionJSON struct {
	ID        string `json:"_id"`
	Exam      int    `json:"exam"`
	PatientID string `json:"patient_id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Epochs    map[string]struct {
		Timestamp   string `json:"timestamp"`
		Series      int    `json:"series"`
		Acquisition int    `json:"acquisition"`
		Description string `json:"description"`
	} `json:"epochs"`
}

func parseSession(data []byte) (models.SessionInfo, error) {
	var sj sessionJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return models.SessionInfo{}, fmt.Errorf("bad session metadata: %w", err)
	}
	info := models.SessionInfo{
		ExamUID:   sj.ID,
		ExamNo:    sj.Exam,
		PatientID: sj.PatientID,
		FirstName: sj.FirstName,
		LastName:  sj.LastName,
	}
	for _, epoch := range sj.Epochs {
		info.SeriesNo = epoch.Series
		info.AcqNo = epoch.Acquisition
		info.SeriesDesc = epoch.Description
		if ts, err := time.Parse(time.RFC3339, epoch.Timestamp); err == nil {
			info.Timestamp = ts
		}
		break
	}
	return info, nil
}
