package transport

// installKeys derives the six RFC 4253 §7.2 keys from the shared
// secret and installs fresh per-direction cipher/MAC state, then
// resets the byte-transferred counter that drives the volume-based
// re-key trigger. This is called once after every NEWKEYS exchange,
// initial or re-key.

import (
	"hash"
	"math/big"
)

func (s *Session) installKeys(hashFn func() hash.Hash, K *big.Int, H []byte, cipherName, macName, compressionName string) error {
	ivCS := keySchedule(hashFn, K, H, s.sessionID, keyLetterIVClientToServer, cipherIVSize(cipherName))
	ivSC := keySchedule(hashFn, K, H, s.sessionID, keyLetterIVServerToClient, cipherIVSize(cipherName))
	keyCS := keySchedule(hashFn, K, H, s.sessionID, keyLetterEncClientToServer, cipherKeySize(cipherName))
	keySC := keySchedule(hashFn, K, H, s.sessionID, keyLetterEncServerToClient, cipherKeySize(cipherName))

	tx := newDirection()
	rx := newDirection()

	if isAEADName(cipherName) {
		txSuite, err := newAEADSuite(cipherName, keyCS)
		if err != nil {
			return err
		}
		rxSuite, err := newAEADSuite(cipherName, keySC)
		if err != nil {
			return err
		}
		tx.cipher, rx.cipher = txSuite, rxSuite
	} else {
		txBlock, err := newBlockCipherSuite(cipherName, keyCS)
		if err != nil {
			return err
		}
		rxBlock, err := newBlockCipherSuite(cipherName, keySC)
		if err != nil {
			return err
		}
		tx.cipher, rx.cipher = txBlock, rxBlock
		tx.stream = txBlock.newStream(ivCS)
		rx.stream = rxBlock.newStream(ivSC)

		macSizeCS := macSize(macName)
		keyMacCS := keySchedule(hashFn, K, H, s.sessionID, keyLetterIntClientToServer, macSizeCS)
		keyMacSC := keySchedule(hashFn, K, H, s.sessionID, keyLetterIntServerToClient, macSizeCS)
		macAlgCS, _, err := macByName(macName, keyMacCS)
		if err != nil {
			return err
		}
		macAlgSC, _, err := macByName(macName, keyMacSC)
		if err != nil {
			return err
		}
		tx.mac, tx.macKey = macAlgCS, keyMacCS
		rx.mac, rx.macKey = macAlgSC, keyMacSC
	}

	txCompress, err := newCompressor(compressionName)
	if err != nil {
		return err
	}
	rxCompress, err := newCompressor(compressionName)
	if err != nil {
		return err
	}
	tx.compress, rx.compress = txCompress, rxCompress
	if s.compressionActivated {
		if d, ok := tx.compress.(*deferredCompressor); ok {
			d.activate()
		}
		if d, ok := rx.compress.(*deferredCompressor); ok {
			d.activate()
		}
	}

	tx.seq, rx.seq = s.codec.tx.seq, s.codec.rx.seq
	s.codec.tx, s.codec.rx = tx, rx
	s.bytesSinceRekey = 0
	return nil
}

func macSize(name string) int {
	switch name {
	case "hmac-sha2-256":
		return 32
	case "hmac-sha2-512":
		return 64
	default:
		return 32
	}
}
