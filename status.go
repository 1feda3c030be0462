/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Printer and job status queries
 */

package ippprobe

import (
	"context"
	"fmt"
	"strings"

	"github.com/OpenPrinting/goipp"
)

// PrinterStateSnapshot represents the printer status at the moment
// of the query
type PrinterStateSnapshot struct {
	Status  PrintStatus   // Overall status
	Reasons []PrintStatus // Decoded printer-state-reasons
	State   int           // Raw printer-state
}

// JobStateSnapshot represents the job status at the moment
// of the query
type JobStateSnapshot struct {
	State    JobState         // Decoded job-state
	Reasons  []JobStateReason // Decoded job-state-reasons
	IppState int              // Raw job-state, IppJobUnknown if missing
}

// String formats PrinterStateSnapshot for logging
func (snap PrinterStateSnapshot) String() string {
	reasons := make([]string, len(snap.Reasons))
	for i, r := range snap.Reasons {
		reasons[i] = r.String()
	}

	return fmt.Sprintf("%s (state=%d reasons=[%s])",
		snap.Status, snap.State, strings.Join(reasons, ","))
}

// String formats JobStateSnapshot for logging
func (snap JobStateSnapshot) String() string {
	reasons := make([]string, len(snap.Reasons))
	for i, r := range snap.Reasons {
		reasons[i] = r.String()
	}

	return fmt.Sprintf("%s (job-state=%d reasons=[%s])",
		snap.State, snap.IppState, strings.Join(reasons, ","))
}

// printerUnreachable is the PrinterStateSnapshot for the printer
// that didn't respond
func printerUnreachable() PrinterStateSnapshot {
	return PrinterStateSnapshot{
		Status:  PrintStatusUnableToConnect,
		Reasons: []PrintStatus{PrintStatusUnableToConnect},
		State:   IppPrinterStopped,
	}
}

// jobUnreachable is the JobStateSnapshot for the printer that
// didn't respond
func jobUnreachable() JobStateSnapshot {
	return JobStateSnapshot{
		State:    JobUnableToConnect,
		Reasons:  []JobStateReason{JobReasonUnableToConnect},
		IppState: IppJobUnknown,
	}
}

// GetPrinterState queries the printer status.
//
// If printer cannot be reached, the snapshot reports
// PrintStatusUnableToConnect. The returned IPP status is either
// the status of the response or the status of the failure.
func (s *Session) GetPrinterState(ctx context.Context,
	uri *string) (PrinterStateSnapshot, goipp.Status) {

	if uri == nil || *uri == "" {
		return printerUnreachable(), goipp.StatusErrorInternal
	}

	rq := s.newRequest(goipp.OpGetPrinterAttributes, *uri)
	rq.Operation.Add(goipp.MakeAttr("requested-attributes",
		goipp.TagKeyword,
		goipp.String("printer-make-and-model"),
		goipp.String("printer-state"),
		goipp.String("printer-state-message"),
		goipp.String("printer-state-reasons")))

	rsp, err := s.Do(ctx, rq, uri)
	if err != nil {
		s.log.Error('!', "IPP: %s: printer state: %s", *uri, err)
		return printerUnreachable(), ErrorStatus(err)
	}

	snap := DecodePrinterState(rsp)
	s.log.Debug(' ', "IPP: %s: printer state: %s", *uri, snap)

	return snap, goipp.Status(rsp.Code)
}

// DecodePrinterState decodes printer status from the response.
//
// Missing printer-state or printer-state-reasons makes the printer
// look unreachable. Without printer-state, reasons are interpreted
// as if the printer were idle.
func DecodePrinterState(msg *goipp.Message) PrinterStateSnapshot {
	attrs := NewAttrs(msg)
	snap := PrinterStateSnapshot{State: IppPrinterStopped}

	state := IppPrinterIdle
	if v, ok := attrs.Integer("printer-state", goipp.TagEnum); ok {
		state = v
		snap.State = v

		switch state {
		case IppPrinterIdle:
			snap.Status = PrintStatusIdle
		case IppPrinterProcessing:
			snap.Status = PrintStatusPrinting
		case IppPrinterStopped:
			snap.Status = PrintStatusSvcRequest
		}
	} else {
		snap.Status = PrintStatusUnableToConnect
		snap.Reasons = []PrintStatus{PrintStatusUnableToConnect}
	}

	keywords := attrs.Strings("printer-state-reasons", goipp.TagKeyword)
	if keywords == nil {
		snap.Status = PrintStatusUnableToConnect
		snap.Reasons = []PrintStatus{PrintStatusUnableToConnect}
		return snap
	}

	var reasons []PrintStatus
	for _, kw := range keywords {
		reason, ok := PrinterReasonStatus(kw, state)
		if !ok {
			continue
		}

		if len(reasons) == MaxPrinterReasons {
			Log.Debug(' ', "printer-state-reasons %q dropped: too many", kw)
			continue
		}

		reasons = append(reasons, reason)
	}

	// Decoded reasons replace the placeholder, if any
	if reasons != nil || snap.Reasons == nil {
		snap.Reasons = reasons
	}

	return snap
}

// GetJobStatus queries status of the job.
//
// If printer cannot be reached, the snapshot reports
// JobUnableToConnect.
func (s *Session) GetJobStatus(ctx context.Context, uri *string,
	jobID int, user string) (JobStateSnapshot, goipp.Status) {

	if uri == nil || *uri == "" {
		return jobUnreachable(), goipp.StatusErrorInternal
	}

	if user == "" {
		user = DefaultUserName
	}

	rq := s.newRequest(goipp.OpGetJobAttributes, *uri)
	rq.Operation.Add(goipp.MakeAttribute("job-id",
		goipp.TagInteger, goipp.Integer(jobID)))
	rq.Operation.Add(goipp.MakeAttribute("requesting-user-name",
		goipp.TagName, goipp.String(user)))
	rq.Operation.Add(goipp.MakeAttr("requested-attributes",
		goipp.TagKeyword,
		goipp.String("job-id"),
		goipp.String("job-printer-uri"),
		goipp.String("job-name"),
		goipp.String("job-state"),
		goipp.String("job-state-reasons")))

	rsp, err := s.Do(ctx, rq, uri)
	if err != nil {
		s.log.Error('!', "IPP: %s: job %d: %s", *uri, jobID, err)
		return jobUnreachable(), ErrorStatus(err)
	}

	snap := DecodeJobState(rsp)
	s.log.Debug(' ', "IPP: %s: job %d: %s", *uri, jobID, snap)

	return snap, goipp.Status(rsp.Code)
}

// DecodeJobState decodes job status from the response.
//
// Missing job-state-reasons makes the job look unreachable,
// regardless of job-state.
func DecodeJobState(msg *goipp.Message) JobStateSnapshot {
	attrs := NewAttrs(msg)
	snap := JobStateSnapshot{IppState: IppJobUnknown}

	if v, ok := attrs.Integer("job-state", goipp.TagEnum); ok {
		snap.IppState = v
	}

	if state, ok := jobStates[snap.IppState]; ok {
		snap.State = state
	} else {
		snap.State = JobUnableToConnect
	}

	keywords := attrs.Strings("job-state-reasons", goipp.TagKeyword)
	if keywords == nil {
		snap.State = JobUnableToConnect
		snap.Reasons = []JobStateReason{JobReasonUnableToConnect}
		return snap
	}

	for _, kw := range keywords {
		reason, ok := JobReasonCode(kw)
		if !ok {
			continue
		}

		if len(snap.Reasons) == MaxJobReasons {
			Log.Debug(' ', "job-state-reasons %q dropped: too many", kw)
			continue
		}

		snap.Reasons = append(snap.Reasons, reason)
	}

	return snap
}

// GetJobID returns ID of the job, submitted by the user, as
// reported by Get-Jobs with my-jobs set. It returns -1 if
// the printer cannot be reached or reports no jobs.
func (s *Session) GetJobID(ctx context.Context, uri *string, user string) int {
	if uri == nil || *uri == "" {
		return -1
	}

	if user == "" {
		user = DefaultUserName
	}

	rq := s.newRequest(goipp.OpGetJobs, *uri)
	rq.Operation.Add(goipp.MakeAttribute("my-jobs",
		goipp.TagBoolean, goipp.Boolean(true)))
	rq.Operation.Add(goipp.MakeAttribute("requesting-user-name",
		goipp.TagName, goipp.String(user)))
	rq.Operation.Add(goipp.MakeAttribute("requested-attributes",
		goipp.TagKeyword, goipp.String("job-id")))

	rsp, err := s.Do(ctx, rq, uri)
	if err != nil {
		s.log.Error('!', "IPP: %s: Get-Jobs: %s", *uri, err)
		return -1
	}

	id, ok := NewAttrs(rsp).Integer("job-id", goipp.TagInteger)
	if !ok {
		return -1
	}

	return id
}
