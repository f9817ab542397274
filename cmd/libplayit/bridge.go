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

package main

/*
#include <stdint.h>
#include <stdlib.h>

typedef void (*playit_log_callback)(int32_t level, const char *message, void *user_data);

static void playit_call_log_callback(playit_log_callback cb, int32_t level, const char *message, void *user_data) {
	cb(level, message, user_data);
}
*/
import "C"

import (
	"strings"
	"unsafe"

	"github.com/playit-cloud/playit-agent-go/pkg/logger"
)

// registerLogCallback installs a sink that forwards each log line to the
// host callback. The callback and user_data pair is captured in the
// closure, so replacing the registration is atomic from the emitter's
// point of view. Delivery happens on the emitting goroutine; the C
// string lives only for the duration of the call.
func registerLogCallback(callback C.playit_log_callback, userData unsafe.Pointer) {
	if callback == nil {
		logger.SetSink(nil)
		return
	}

	logger.SetSink(func(level int32, message string) {
		msg := C.CString(strings.ReplaceAll(message, "\x00", ""))
		C.playit_call_log_callback(callback, C.int32_t(level), msg, userData)
		C.free(unsafe.Pointer(msg))
	})
}
