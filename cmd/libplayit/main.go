/*
 * Copyright 2025 Playit Cloud.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// The libplayit build exposes the agent lifecycle controller through the
// fixed C ABI declared in include/playit_agent.h. Build with:
//
//	go build -buildmode=c-shared -o libplayit.so ./cmd/libplayit
//
// No failure crosses the boundary as a panic; every outcome is a return
// code or a status field.
package main

/*
#include <stdint.h>
#include <stdlib.h>

typedef void (*playit_log_callback)(int32_t level, const char *message, void *user_data);

typedef struct {
	int32_t code;
	const char *last_address;
	const char *last_error;
} playit_status;
*/
import "C"

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"
	"unsafe"

	"github.com/playit-cloud/playit-agent-go/pkg/agent"
	"github.com/playit-cloud/playit-agent-go/pkg/config"
	"github.com/playit-cloud/playit-agent-go/pkg/logger"
)

// Boundary return codes. Zero is success; failures are negative.
const (
	playitOK                = 0
	playitErrInvalidConfig  = -1
	playitErrInvalidState   = -2
	playitErrNotInitialized = -3
)

var (
	controllerOnce sync.Once
	controller     *agent.Controller

	// The strings handed out by playit_get_status are C allocations
	// owned by the library. They stay valid until the next
	// playit_get_status call replaces them; callers copy for longer
	// retention.
	statusStringsMu sync.Mutex
	lastAddressC    *C.char
	lastErrorC      *C.char
)

// sharedController lazily builds the single process-wide controller. Its
// logger writes only to the sink registry; the host owns all output.
func sharedController() *agent.Controller {
	controllerOnce.Do(func() {
		controller = agent.NewController(logger.NewSinkLogger())
	})

	return controller
}

//export playit_set_log_callback
func playit_set_log_callback(callback C.playit_log_callback, userData unsafe.Pointer) {
	defer recoverBoundary()

	registerLogCallback(callback, userData)
}

//export playit_init
func playit_init(configJSON *C.char) (rc C.int32_t) {
	defer func() {
		if recover() != nil {
			rc = playitErrInvalidState
		}
	}()

	if configJSON == nil {
		return playitErrInvalidConfig
	}

	raw := C.GoString(configJSON)
	if !utf8.ValidString(raw) {
		return playitErrInvalidConfig
	}

	cfg, err := config.ParseAgentConfig([]byte(raw))
	if err != nil {
		return playitErrInvalidConfig
	}

	if err := sharedController().Init(cfg); err != nil {
		if errors.Is(err, agent.ErrAgentRunning) {
			return playitErrInvalidState
		}

		return playitErrInvalidConfig
	}

	return playitOK
}

//export playit_start
func playit_start() (rc C.int32_t) {
	defer func() {
		if recover() != nil {
			rc = playitErrInvalidState
		}
	}()

	if err := sharedController().Start(); err != nil {
		return playitErrNotInitialized
	}

	return playitOK
}

//export playit_stop
func playit_stop() (rc C.int32_t) {
	defer recoverBoundary()

	sharedController().Stop()

	return playitOK
}

//export playit_get_status
func playit_get_status() (st C.playit_status) {
	defer recoverBoundary()

	snapshot := sharedController().Status()

	statusStringsMu.Lock()
	defer statusStringsMu.Unlock()

	freeStatusStringsLocked()

	st.code = C.int32_t(snapshot.Code)

	if snapshot.LastAddress != "" {
		lastAddressC = cStringSanitized(snapshot.LastAddress)
		st.last_address = lastAddressC
	}

	if snapshot.LastError != "" {
		lastErrorC = cStringSanitized(snapshot.LastError)
		st.last_error = lastErrorC
	}

	return st
}

func freeStatusStringsLocked() {
	if lastAddressC != nil {
		C.free(unsafe.Pointer(lastAddressC))
		lastAddressC = nil
	}

	if lastErrorC != nil {
		C.free(unsafe.Pointer(lastErrorC))
		lastErrorC = nil
	}
}

// cStringSanitized strips interior NUL bytes so the value survives the
// conversion to a C string intact.
func cStringSanitized(value string) *C.char {
	return C.CString(strings.ReplaceAll(value, "\x00", ""))
}

func recoverBoundary() {
	_ = recover()
}

func main() {}
